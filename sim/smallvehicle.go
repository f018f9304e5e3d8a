package sim

import (
	"fmt"
	"math/rand"
)

// SmallVehicleState is the closed set of states a small collection vehicle
// moves through. Every transition site switches exhaustively over it.
type SmallVehicleState int

const (
	SmallAvailable SmallVehicleState = iota
	SmallCollecting
	SmallInTransit
	SmallQueued
	SmallUnloading
	SmallDayClosed
)

func (s SmallVehicleState) String() string {
	switch s {
	case SmallAvailable:
		return "AVAILABLE"
	case SmallCollecting:
		return "COLLECTING"
	case SmallInTransit:
		return "IN_TRANSIT"
	case SmallQueued:
		return "QUEUED_AT_STATION"
	case SmallUnloading:
		return "UNLOADING"
	case SmallDayClosed:
		return "DAY_CLOSED"
	}
	return fmt.Sprintf("SmallVehicleState(%d)", int(s))
}

// SmallVehicleCapacities are the admissible capacity classes in kg,
// selected by 1-based class index at configuration time.
var SmallVehicleCapacities = []int{2000, 4000, 8000, 10000}

// SmallVehicle is a collection vehicle that gathers waste in zones and
// ferries it to transfer stations. It holds non-owning references to its
// current zone and destination; ownership stays with the Simulator's fleet.
type SmallVehicle struct {
	Plate    string
	Capacity int
	Load     int

	Trips     int // loaded departures to a station this day
	TripLimit int // per-day cap; 0 means unlimited

	State SmallVehicleState

	HomeZone    *Zone
	CurrentZone *Zone
	DestZone    *Zone    // exclusive with DestStation
	DestStation *Station // exclusive with DestZone

	TravelRemaining  int // minutes left in transit
	CollectRemaining int // minutes left loading the claimed batch
	PendingLoad      int // kg claimed from the zone but not yet on board
	UnloadRemaining  int // minutes left unloading at a station
	UnloadAmount     int // kg being transferred by the current unload
	QueueWait        int // minutes spent in the current station queue
}

// NewSmallVehicle builds a small vehicle of the given capacity class (1-4),
// bound to a home zone. An empty plate is generated from the RNG.
func NewSmallVehicle(class int, plate string, tripLimit int, home *Zone, rng *rand.Rand) (*SmallVehicle, error) {
	if class < 1 || class > len(SmallVehicleCapacities) {
		return nil, fmt.Errorf("small vehicle capacity class must be 1..%d, got %d", len(SmallVehicleCapacities), class)
	}
	if tripLimit < 0 {
		return nil, fmt.Errorf("trip limit must be non-negative, got %d", tripLimit)
	}
	if home == nil {
		return nil, fmt.Errorf("small vehicle needs a home zone")
	}
	p, err := resolvePlate(plate, rng)
	if err != nil {
		return nil, err
	}
	return &SmallVehicle{
		Plate:       p,
		Capacity:    SmallVehicleCapacities[class-1],
		TripLimit:   tripLimit,
		State:       SmallAvailable,
		HomeZone:    home,
		CurrentZone: home,
	}, nil
}

// FreeCapacity is the kg the vehicle can still take on, counting mass already
// claimed but not yet loaded.
func (v *SmallVehicle) FreeCapacity() int {
	free := v.Capacity - v.Load - v.PendingLoad
	return max(free, 0)
}

// Full reports whether the vehicle (including its pending claim) is at
// capacity.
func (v *SmallVehicle) Full() bool {
	return v.Load+v.PendingLoad >= v.Capacity
}

// Carrying reports whether any cargo is on board or mid-claim.
func (v *SmallVehicle) Carrying() bool {
	return v.Load+v.PendingLoad > 0
}

// AtTripLimit reports whether the per-day trip limit has been reached.
func (v *SmallVehicle) AtTripLimit() bool {
	return v.TripLimit > 0 && v.Trips >= v.TripLimit
}

// BeginCollection claims kg from the current zone's waste, to be loaded over
// a countdown of ceil(kg/1000)*minutesPerTonne minutes (at least 1).
// The claim must already have been debited from the zone.
func (v *SmallVehicle) BeginCollection(kg, minutesPerTonne int) error {
	if v.State != SmallCollecting {
		return fmt.Errorf("vehicle %s cannot collect in state %s", v.Plate, v.State)
	}
	if kg <= 0 {
		return fmt.Errorf("vehicle %s: collection claim must be positive, got %d", v.Plate, kg)
	}
	// Clamp rather than fail: the claim is sized by the caller, but a stale
	// free-capacity read must not overfill the vehicle.
	kg = min(kg, v.FreeCapacity())
	v.PendingLoad += kg
	v.CollectRemaining += max(ceilDiv(kg, 1000)*minutesPerTonne, 1)
	return nil
}

// AdvanceCollection moves one minute of the claimed batch on board and
// reports whether the claim has been fully loaded.
func (v *SmallVehicle) AdvanceCollection() bool {
	if v.CollectRemaining <= 0 {
		return true
	}
	step := v.PendingLoad / v.CollectRemaining
	v.Load += step
	v.PendingLoad -= step
	v.CollectRemaining--
	if v.CollectRemaining == 0 {
		v.Load += v.PendingLoad
		v.PendingLoad = 0
	}
	return v.CollectRemaining == 0
}

// BeginTripToZone puts the vehicle in transit towards a zone.
func (v *SmallVehicle) BeginTripToZone(z *Zone, minutes int) error {
	if v.State == SmallDayClosed {
		return fmt.Errorf("vehicle %s is closed for the day", v.Plate)
	}
	v.State = SmallInTransit
	v.DestZone = z
	v.DestStation = nil
	v.TravelRemaining = max(minutes, 0)
	return nil
}

// BeginTripToStation puts the vehicle in transit towards a station and counts
// the trip against the per-day limit.
func (v *SmallVehicle) BeginTripToStation(st *Station, minutes int) error {
	if v.State == SmallDayClosed {
		return fmt.Errorf("vehicle %s is closed for the day", v.Plate)
	}
	v.State = SmallInTransit
	v.DestStation = st
	v.DestZone = nil
	v.TravelRemaining = max(minutes, 0)
	v.Trips++
	return nil
}

// AdvanceTravel burns one minute of travel and reports arrival.
func (v *SmallVehicle) AdvanceTravel() bool {
	if v.TravelRemaining > 0 {
		v.TravelRemaining--
	}
	return v.TravelRemaining == 0
}

// BeginUnload starts a timed unload of kg into a large vehicle or station
// buffer: one minute per started 1000 kg times minutesPerTonne, at least 1.
func (v *SmallVehicle) BeginUnload(kg, minutesPerTonne int) error {
	if v.State != SmallQueued {
		return fmt.Errorf("vehicle %s cannot unload in state %s", v.Plate, v.State)
	}
	if kg <= 0 || kg > v.Load {
		return fmt.Errorf("vehicle %s: unload of %dkg with load %dkg", v.Plate, kg, v.Load)
	}
	v.State = SmallUnloading
	v.UnloadAmount = kg
	v.UnloadRemaining = max(ceilDiv(kg, 1000)*minutesPerTonne, 1)
	return nil
}

// AdvanceUnload burns one minute of the running unload and reports
// completion. The cargo itself moves at completion, via FinishUnload.
func (v *SmallVehicle) AdvanceUnload() bool {
	if v.UnloadRemaining > 0 {
		v.UnloadRemaining--
	}
	return v.UnloadRemaining == 0
}

// FinishUnload removes the transferred amount from the vehicle's load and
// returns it. The caller credits it to the receiving large vehicle or buffer.
func (v *SmallVehicle) FinishUnload() int {
	kg := min(v.UnloadAmount, v.Load)
	v.Load -= kg
	v.UnloadAmount = 0
	return kg
}

// CloseDay transitions the vehicle to DAY_CLOSED. Idempotent.
func (v *SmallVehicle) CloseDay() {
	v.State = SmallDayClosed
	v.DestZone = nil
	v.DestStation = nil
}

// ResetForNewDay returns the vehicle to AVAILABLE with a zeroed trip counter
// and cleared countdowns. Called at day rollover.
func (v *SmallVehicle) ResetForNewDay() {
	v.State = SmallAvailable
	v.Trips = 0
	v.Load = 0
	v.PendingLoad = 0
	v.CollectRemaining = 0
	v.TravelRemaining = 0
	v.UnloadRemaining = 0
	v.UnloadAmount = 0
	v.QueueWait = 0
	v.DestZone = nil
	v.DestStation = nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
