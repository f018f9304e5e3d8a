package sim

import (
	"fmt"
	"math/rand"
)

// LargeVehicleState is the closed set of states a haul vehicle moves through.
type LargeVehicleState int

const (
	LargeWaiting LargeVehicleState = iota
	LargeEnRouteToLandfill
	LargeUnloadingAtLandfill
	LargeReturning
)

func (s LargeVehicleState) String() string {
	switch s {
	case LargeWaiting:
		return "WAITING"
	case LargeEnRouteToLandfill:
		return "EN_ROUTE_TO_LANDFILL"
	case LargeUnloadingAtLandfill:
		return "UNLOADING_AT_LANDFILL"
	case LargeReturning:
		return "RETURNING"
	}
	return fmt.Sprintf("LargeVehicleState(%d)", int(s))
}

// LargeVehicleCapacity is the fixed capacity of every haul vehicle in kg.
const LargeVehicleCapacity = 20000

// LargeVehicle shuttles accumulated waste from a transfer station to the
// landfill. While WAITING it accepts cargo up to capacity; it departs when
// full or when its wait tolerance is exceeded with cargo on board.
type LargeVehicle struct {
	Plate    string
	Capacity int
	Load     int

	WaitTolerance int // minutes it will wait at a station before departing loaded
	WaitAccum     int // minutes waited since last assignment or last cargo reset

	State LargeVehicleState

	OriginStation *Station // station it was loading at
	DestStation   *Station // station it returns to after the landfill

	Remaining int // countdown for travel or landfill unload, in minutes
}

// NewLargeVehicle builds a haul vehicle. An empty plate is generated from
// the RNG.
func NewLargeVehicle(plate string, waitTolerance int, rng *rand.Rand) (*LargeVehicle, error) {
	if waitTolerance <= 0 {
		return nil, fmt.Errorf("large vehicle wait tolerance must be positive, got %d", waitTolerance)
	}
	p, err := resolvePlate(plate, rng)
	if err != nil {
		return nil, err
	}
	return &LargeVehicle{
		Plate:         p,
		Capacity:      LargeVehicleCapacity,
		WaitTolerance: waitTolerance,
		State:         LargeWaiting,
	}, nil
}

// FreeCapacity is the kg the vehicle can still accept.
func (v *LargeVehicle) FreeCapacity() int {
	return max(v.Capacity-v.Load, 0)
}

// Receive loads up to kg onto the vehicle, clamped to free capacity, and
// returns the amount actually taken. Load never exceeds capacity.
func (v *LargeVehicle) Receive(kg int) int {
	if kg <= 0 {
		return 0
	}
	taken := min(kg, v.FreeCapacity())
	v.Load += taken
	return taken
}

// ShouldDepart reports whether the release condition holds: cargo on board
// and either full or the accumulated wait reached the tolerance. A large
// vehicle is never released empty.
func (v *LargeVehicle) ShouldDepart() bool {
	return v.Load > 0 && (v.Load >= v.Capacity || v.WaitAccum >= v.WaitTolerance)
}

// DepartForLandfill starts the trip to the landfill.
func (v *LargeVehicle) DepartForLandfill(minutes int) {
	v.State = LargeEnRouteToLandfill
	v.Remaining = max(minutes, 1)
	v.WaitAccum = 0
}

// BeginLandfillUnload starts the fixed-duration unload at the landfill.
func (v *LargeVehicle) BeginLandfillUnload(minutes int) {
	v.State = LargeUnloadingAtLandfill
	v.Remaining = max(minutes, 1)
}

// FinishLandfillUnload empties the cargo and returns the delivered amount.
func (v *LargeVehicle) FinishLandfillUnload() int {
	kg := v.Load
	v.Load = 0
	return kg
}

// BeginReturn starts the trip back to the destination station.
func (v *LargeVehicle) BeginReturn(minutes int) {
	v.State = LargeReturning
	v.Remaining = max(minutes, 1)
}

// ArriveAtStation registers the vehicle as WAITING with a fresh wait count.
func (v *LargeVehicle) ArriveAtStation() {
	v.State = LargeWaiting
	v.WaitAccum = 0
	v.Remaining = 0
}

// Advance burns one minute of the current countdown and reports whether it
// reached zero. Only meaningful outside WAITING.
func (v *LargeVehicle) Advance() bool {
	if v.Remaining > 0 {
		v.Remaining--
	}
	return v.Remaining == 0
}
