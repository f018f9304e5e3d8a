package sim

// Dispatcher assigns idle small vehicles to the zones that need them most.
// Scoring follows a weighted combination of waste on the ground, the share of
// the zone's daily generation still uncollected, the estimated travel time,
// and a penalty for zones already saturated with vehicles.
type Dispatcher struct {
	VehiclesPerZone int
	maxDistanceKm   int

	// ceiling is the dynamic per-zone concurrent-vehicle cap:
	// max(2, VehiclesPerZone+1), the +1 leaving headroom for heavy zones.
	ceiling int
}

// Scoring weights. Waste dominates, distance pushes vehicles to stay local,
// saturation is punitive.
const (
	scoreWasteWeight       = 0.8
	scoreUncollectedWeight = 400.0
	scoreTravelWeight      = 12.0
	scoreExcessPenalty     = 100.0
)

// NewDispatcher builds a dispatcher for the configured per-zone concurrency.
func NewDispatcher(vehiclesPerZone, maxDistanceKm int) *Dispatcher {
	return &Dispatcher{
		VehiclesPerZone: vehiclesPerZone,
		maxDistanceKm:   maxDistanceKm,
		ceiling:         max(2, vehiclesPerZone+1),
	}
}

// Ceiling returns the per-zone concurrent-vehicle cap.
func (d *Dispatcher) Ceiling() int { return d.ceiling }

// Assign walks the fleet and sends every AVAILABLE vehicle under its trip
// limit to its best-scoring zone. A vehicle whose best zone is its current
// zone resumes collecting in place; a vehicle with no qualifying zone is
// closed for the day. Returns the number of vehicles dispatched.
func (d *Dispatcher) Assign(s *Simulator) int {
	dispatched := 0
	for _, v := range s.SmallFleet {
		if v.State != SmallAvailable {
			continue
		}
		if v.AtTripLimit() {
			v.CloseDay()
			s.Log.Event(s.Clock, CatInfo, "vehicle %s reached its trip limit (%d), closed for the day", v.Plate, v.TripLimit)
			continue
		}
		best := d.bestZone(s, v)
		if best == nil {
			if v.Carrying() {
				// Never close a loaded vehicle; let it drain first.
				s.sendToStation(v)
				dispatched++
				continue
			}
			v.CloseDay()
			s.Log.Event(s.Clock, CatInfo, "no qualifying zone for vehicle %s, closed for the day", v.Plate)
			continue
		}
		if best == v.CurrentZone {
			v.State = SmallCollecting
			best.ActiveVehicles++
			s.Log.Event(s.Clock, CatAssign, "vehicle %s resumes collecting in %s (%dkg on the ground)", v.Plate, best.Name, best.Accumulated)
			dispatched++
			continue
		}
		minutes := s.Travel.Minutes(s.Clock, v.CurrentZone, best)
		if err := v.BeginTripToZone(best, minutes); err != nil {
			s.Log.Event(s.Clock, CatError, "dispatch rejected: %v", err)
			continue
		}
		s.Log.Event(s.Clock, CatAssign, "vehicle %s dispatched %s -> %s (travel %dmin, %dkg on the ground)",
			v.Plate, v.CurrentZone.Name, best.Name, minutes, best.Accumulated)
		dispatched++
	}
	return dispatched
}

// bestZone returns the highest-scoring qualifying zone for the vehicle, or
// nil when none qualifies.
func (d *Dispatcher) bestZone(s *Simulator, v *SmallVehicle) *Zone {
	var best *Zone
	bestScore := 0.0
	for _, z := range s.Zones {
		if !d.qualifies(s, v, z) {
			continue
		}
		score := d.score(s, v, z)
		if best == nil || score > bestScore {
			best = z
			bestScore = score
		}
	}
	return best
}

// qualifies applies the hard filters: the zone must have waste, be within
// dispatch range, and not be over the concurrency ceiling.
func (d *Dispatcher) qualifies(s *Simulator, v *SmallVehicle, z *Zone) bool {
	if z.Accumulated <= 0 {
		return false
	}
	if z.ActiveVehicles > d.ceiling {
		return false
	}
	if v.CurrentZone != nil && v.CurrentZone != z {
		if s.Distances.Between(v.CurrentZone.Name, z.Name) > d.maxDistanceKm {
			return false
		}
	}
	return true
}

func (d *Dispatcher) score(s *Simulator, v *SmallVehicle, z *Zone) float64 {
	travel := 0
	if v.CurrentZone != z {
		// Score on the deterministic component only: jittering the estimate
		// would make assignment order-dependent on RNG draws.
		travel = s.Distances.Between(v.CurrentZone.Name, z.Name) * 60 / s.Config.SpeedKmh
	}
	score := scoreWasteWeight*float64(z.Accumulated) +
		scoreUncollectedWeight*z.UncollectedFraction() -
		scoreTravelWeight*float64(travel)
	if excess := z.ActiveVehicles - d.VehiclesPerZone; excess > 0 {
		score -= scoreExcessPenalty * float64(excess)
	}
	return score
}
