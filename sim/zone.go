package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// MinutesPerDay is the length of a simulated day in ticks.
const MinutesPerDay = 24 * 60

// Zone is a geographic area that generates and accumulates waste.
// Zones are owned by the Simulator; vehicles and stations hold non-owning
// references to them.
type Zone struct {
	Name    string
	WasteMin int // kg generated per cycle, lower bound
	WasteMax int // kg generated per cycle, upper bound

	Accumulated    int // kg of waste currently on the ground, never negative
	ActiveVehicles int // small vehicles currently collecting here
	DailyGenerated int // kg generated since the last day rollover

	// Travel-time adjustment constants for trips touching this zone,
	// in minutes, applied on top of the distance-derived base time.
	PeakDelay    int
	OffPeakDelay int
}

// NewZone validates the generation bounds and builds a zone with no
// accumulated waste.
func NewZone(name string, wasteMin, wasteMax, peakDelay, offPeakDelay int) (*Zone, error) {
	if name == "" {
		return nil, fmt.Errorf("zone name must not be empty")
	}
	if wasteMin < 0 || wasteMax < wasteMin {
		return nil, fmt.Errorf("zone %s: invalid waste bounds [%d, %d]", name, wasteMin, wasteMax)
	}
	if peakDelay < 0 || offPeakDelay < 0 {
		return nil, fmt.Errorf("zone %s: travel delays must be non-negative", name)
	}
	return &Zone{
		Name:         name,
		WasteMin:     wasteMin,
		WasteMax:     wasteMax,
		PeakDelay:    peakDelay,
		OffPeakDelay: offPeakDelay,
	}, nil
}

// Generate accrues a random amount of waste in [WasteMin, WasteMax] and
// returns the amount generated.
func (z *Zone) Generate(rng *rand.Rand) int {
	if z.WasteMax == 0 {
		return 0
	}
	amount := z.WasteMin
	if z.WasteMax > z.WasteMin {
		amount += rng.Intn(z.WasteMax - z.WasteMin + 1)
	}
	z.Accumulated += amount
	z.DailyGenerated += amount
	return amount
}

// Collect removes up to requested kg of waste and returns the amount actually
// collected: min(requested, accumulated). Accumulated waste never goes
// negative.
func (z *Zone) Collect(requested int) int {
	if requested <= 0 {
		return 0
	}
	collected := min(requested, z.Accumulated)
	z.Accumulated -= collected
	return collected
}

// UncollectedFraction returns the share of this zone's daily generation that
// is still on the ground, in [0, 1].
func (z *Zone) UncollectedFraction() float64 {
	if z.DailyGenerated <= 0 {
		return 0
	}
	frac := float64(z.Accumulated) / float64(z.DailyGenerated)
	return min(frac, 1.0)
}

// === Distance table ===

// DistanceTable is a static symmetric table of inter-zone distances in km.
type DistanceTable struct {
	km map[string]int
}

// NewDistanceTable builds the table from (from, to, km) entries. Entries are
// symmetric: registering A->B also answers B->A.
func NewDistanceTable() *DistanceTable {
	return &DistanceTable{km: make(map[string]int)}
}

// Set registers the distance between two zones.
func (t *DistanceTable) Set(a, b string, km int) error {
	if km < 0 {
		return fmt.Errorf("distance %s-%s must be non-negative, got %d", a, b, km)
	}
	t.km[pairKey(a, b)] = km
	return nil
}

// Between returns the distance in km between two zones, or 0 when they are
// the same zone or no entry exists.
func (t *DistanceTable) Between(a, b string) int {
	if a == b {
		return 0
	}
	return t.km[pairKey(a, b)]
}

// Known reports whether the pair has an entry.
func (t *DistanceTable) Known(a, b string) bool {
	if a == b {
		return true
	}
	_, ok := t.km[pairKey(a, b)]
	return ok
}

func pairKey(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return p[0] + "|" + p[1]
}

// === Travel-time model ===

// Daily peak traffic windows, in minutes from midnight.
const (
	peakMorningStart = 7 * 60
	peakMorningEnd   = 9*60 - 1
	peakMiddayStart  = 12 * 60
	peakMiddayEnd    = 13*60 - 1
	peakEveningStart = 17 * 60
	peakEveningEnd   = 19*60 - 1
)

// IsPeakMinute reports whether the given simulated minute falls inside one of
// the three daily peak windows (morning, midday, evening).
func IsPeakMinute(tick int) bool {
	m := tick % MinutesPerDay
	return (m >= peakMorningStart && m <= peakMorningEnd) ||
		(m >= peakMiddayStart && m <= peakMiddayEnd) ||
		(m >= peakEveningStart && m <= peakEveningEnd)
}

// TravelModel computes inter-zone travel times from the distance table, the
// time of day and bounded random jitter.
type TravelModel struct {
	Distances    *DistanceTable
	SpeedKmh     int // average speed off-peak
	SpeedPeakKmh int // average speed during peak windows
	rng          *rand.Rand
}

// NewTravelModel builds a travel model. The RNG supplies the ±10% jitter and
// must come from the simulation's partitioned RNG for reproducibility.
func NewTravelModel(distances *DistanceTable, speedKmh, speedPeakKmh int, rng *rand.Rand) (*TravelModel, error) {
	if speedKmh <= 0 || speedPeakKmh <= 0 {
		return nil, fmt.Errorf("travel speeds must be positive, got %d/%d", speedKmh, speedPeakKmh)
	}
	return &TravelModel{
		Distances:    distances,
		SpeedKmh:     speedKmh,
		SpeedPeakKmh: speedPeakKmh,
		rng:          rng,
	}, nil
}

// Minutes returns the travel time in minutes between two zones at the given
// simulated minute: distance over average speed, plus the per-zone variance
// constants of both endpoints, scaled by a jitter in [0.9, 1.1]. The result
// is at least 1, or exactly 0 when origin equals destination.
func (m *TravelModel) Minutes(tick int, from, to *Zone) int {
	if from == nil || to == nil || from.Name == to.Name {
		return 0
	}
	peak := IsPeakMinute(tick)
	speed := m.SpeedKmh
	delay := from.OffPeakDelay + to.OffPeakDelay
	if peak {
		speed = m.SpeedPeakKmh
		delay = from.PeakDelay + to.PeakDelay
	}
	base := float64(m.Distances.Between(from.Name, to.Name)) / float64(speed) * 60.0
	jitter := 0.9 + 0.2*m.rng.Float64()
	minutes := int((base + float64(delay)) * jitter)
	return max(minutes, 1)
}
