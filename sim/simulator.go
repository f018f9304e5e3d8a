// sim/simulator.go
package sim

import (
	"fmt"
)

// DispatchInterval is the cadence, in simulated minutes, at which idle small
// vehicles are redistributed across zones.
const DispatchInterval = 10

// StatsInterval is the cadence of periodic statistics snapshots.
const StatsInterval = 60

// Simulator is the orchestrator: it owns the zones, stations and both fleets
// for the simulation's lifetime and drives one simulated minute per Tick.
// Vehicles and stations hold only non-owning references into these
// collections.
type Simulator struct {
	Clock int // simulated minutes since start
	Day   int // completed day rollovers

	Config Config

	Zones    []*Zone
	Landfill *Zone
	Stations []*Station

	SmallFleet []*SmallVehicle
	LargeFleet []*LargeVehicle // every haul vehicle ever provisioned
	idleLarge  []*LargeVehicle // waiting, unassigned pool

	Dispatcher *Dispatcher
	Distances  *DistanceTable
	Travel     *TravelModel

	Stats StatsRecorder
	Log   *EventLog

	rng *PartitionedRNG
}

// NewSimulator validates the configuration and builds a ready-to-run engine
// with day-one waste already generated. All configuration errors surface
// here, before the first tick.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		Config:     cfg,
		Distances:  NewDistanceTable(),
		Stats:      NewStats(),
		Log:        NewEventLog(cfg.Log),
		rng:        NewPartitionedRNG(cfg.Seed),
		Dispatcher: NewDispatcher(cfg.VehiclesPerZone, cfg.MaxDispatchDistanceKm),
	}

	zoneByName := make(map[string]*Zone, len(cfg.Zones))
	for _, zc := range cfg.Zones {
		z, err := NewZone(zc.Name, zc.WasteMin, zc.WasteMax, zc.PeakDelay, zc.OffPeakDelay)
		if err != nil {
			return nil, err
		}
		s.Zones = append(s.Zones, z)
		zoneByName[z.Name] = z
	}

	if lz, ok := zoneByName[cfg.LandfillZone]; ok {
		s.Landfill = lz
	} else {
		// The landfill may sit outside the serviced zones; it then exists
		// only as a travel endpoint and generates no waste.
		lz, err := NewZone(cfg.LandfillZone, 0, 0, 0, 0)
		if err != nil {
			return nil, err
		}
		s.Landfill = lz
		zoneByName[lz.Name] = lz
	}

	for _, dc := range cfg.Distances {
		if _, ok := zoneByName[dc.From]; !ok {
			return nil, fmt.Errorf("distance entry references unknown zone %q", dc.From)
		}
		if _, ok := zoneByName[dc.To]; !ok {
			return nil, fmt.Errorf("distance entry references unknown zone %q", dc.To)
		}
		if err := s.Distances.Set(dc.From, dc.To, dc.Km); err != nil {
			return nil, err
		}
	}

	travel, err := NewTravelModel(s.Distances, cfg.SpeedKmh, cfg.SpeedPeakKmh, s.rng.ForSubsystem(SubsystemTravel))
	if err != nil {
		return nil, err
	}
	s.Travel = travel

	for _, sc := range cfg.Stations {
		st, err := NewStation(sc.Name, zoneByName[sc.Zone], sc.MaxQueueWait, sc.BufferCapacity)
		if err != nil {
			return nil, err
		}
		s.Stations = append(s.Stations, st)
	}

	plates := s.rng.ForSubsystem(SubsystemPlates)
	for class := 1; class <= len(SmallVehicleCapacities); class++ {
		for i := 0; i < cfg.SmallVehicles[class]; i++ {
			home := s.Zones[len(s.SmallFleet)%len(s.Zones)]
			v, err := NewSmallVehicle(class, "", cfg.TripLimit, home, plates)
			if err != nil {
				return nil, err
			}
			s.SmallFleet = append(s.SmallFleet, v)
		}
	}
	for i := 0; i < cfg.LargeVehicles; i++ {
		s.idleLarge = append(s.idleLarge, s.provisionLarge())
	}

	s.regenerateZones()
	return s, nil
}

// Tick advances the simulation by one minute: day handling, dispatch,
// small vehicles, stations, haul vehicles, then periodic bookkeeping.
// Tick never aborts; malformed inputs are rejected at construction.
func (s *Simulator) Tick() {
	s.Clock++

	if s.Clock%MinutesPerDay == 0 {
		s.rollover()
	} else if s.Clock > 1 && s.dayComplete() {
		s.rollover()
		s.Clock = ceilDiv(s.Clock, MinutesPerDay) * MinutesPerDay
	}

	if s.Clock%DispatchInterval == 0 && s.pendingWork() {
		if n := s.Dispatcher.Assign(s); n > 0 {
			s.Log.Event(s.Clock, CatInfo, "%d vehicle(s) dispatched", n)
		}
	}

	s.updateSmallVehicles()
	s.updateStations()
	s.updateLargeVehicles()

	if s.Config.GenerationInterval > 0 && s.Clock%s.Config.GenerationInterval == 0 {
		s.generateWaste()
	}
	if s.Clock%StatsInterval == 0 {
		s.snapshotStats()
	}
}

// RunDays ticks the engine until the given number of simulated days has
// elapsed, without wall-clock pacing.
func (s *Simulator) RunDays(days int) {
	horizon := days * MinutesPerDay
	for s.Clock < horizon {
		s.Tick()
	}
	s.snapshotStats()
}

// pendingWork reports whether the dispatcher has anything to do: at least
// one zone with waste and one vehicle to send there.
func (s *Simulator) pendingWork() bool {
	if !s.anyZoneHasWaste() {
		return false
	}
	for _, v := range s.SmallFleet {
		if v.State == SmallAvailable {
			return true
		}
	}
	return false
}

func (s *Simulator) anyZoneHasWaste() bool {
	for _, z := range s.Zones {
		if z.Accumulated > 0 {
			return true
		}
	}
	return false
}

// dayComplete is the day-completion predicate: every zone swept, every queue
// and buffer drained, no cargo anywhere, and the landfill has received
// everything that was collected.
func (s *Simulator) dayComplete() bool {
	if s.Stats.TotalCollected() != s.Stats.TotalLandfilled() {
		return false
	}
	if s.anyZoneHasWaste() {
		return false
	}
	for _, st := range s.Stations {
		if st.Queue.Len() > 0 || st.Buffer > 0 {
			return false
		}
	}
	for _, v := range s.SmallFleet {
		if v.Carrying() && v.State != SmallQueued && v.State != SmallUnloading {
			return false
		}
	}
	for _, v := range s.LargeFleet {
		if v.Load > 0 {
			return false
		}
	}
	return true
}

// === Small vehicle updates ===

func (s *Simulator) updateSmallVehicles() {
	s.claimCollections()
	for _, v := range s.SmallFleet {
		switch v.State {
		case SmallDayClosed, SmallAvailable, SmallQueued, SmallUnloading:
			// Queue and unload progress belong to the stations.
		case SmallCollecting:
			s.advanceCollecting(v)
		case SmallInTransit:
			if v.AdvanceTravel() {
				s.arrive(v)
			}
		}
	}
}

// claimCollections hands every claim-ready vehicle its fair share of its
// zone's waste: capacity over the sum of claiming capacities, times the
// waste available, capped by free capacity.
func (s *Simulator) claimCollections() {
	for _, z := range s.Zones {
		if z.Accumulated == 0 {
			continue
		}
		var claimants []*SmallVehicle
		sumCaps := 0
		for _, v := range s.SmallFleet {
			if v.State == SmallCollecting && v.CurrentZone == z && v.CollectRemaining == 0 && v.FreeCapacity() > 0 {
				claimants = append(claimants, v)
				sumCaps += v.Capacity
			}
		}
		if sumCaps == 0 {
			continue
		}
		available := z.Accumulated
		for _, v := range claimants {
			share := available * v.Capacity / sumCaps
			if share == 0 {
				// Integer fair-share floors to zero once the residue drops
				// below the claimant ratio. Hand the whole remainder to the
				// next claimant so the zone always drains.
				share = z.Accumulated
			}
			share = min(share, v.FreeCapacity())
			claimed := z.Collect(share)
			if claimed == 0 {
				continue
			}
			if err := v.BeginCollection(claimed, s.Config.CollectMinutesPerTonne); err != nil {
				// Precondition violation: put the waste back and move on.
				z.Accumulated += claimed
				s.Log.Event(s.Clock, CatError, "collection rejected: %v", err)
				continue
			}
			s.Stats.RecordCollection(z.Name, claimed)
			s.Log.Event(s.Clock, CatCollect, "vehicle %s claims %dkg in %s (load %d+%d/%dkg, %dmin to load)",
				v.Plate, claimed, z.Name, v.Load, v.PendingLoad, v.Capacity, v.CollectRemaining)
		}
	}
}

func (s *Simulator) advanceCollecting(v *SmallVehicle) {
	if v.CollectRemaining > 0 {
		v.AdvanceCollection()
	}
	if v.CollectRemaining > 0 {
		return
	}
	if v.Full() {
		s.sendToStation(v)
		return
	}
	if v.CurrentZone != nil && v.CurrentZone.Accumulated == 0 {
		// Zone swept clean. Loaded vehicles go drain at a station when no
		// other zone can top them up; everyone else goes back to the pool.
		if v.Load > 0 && !s.anyZoneHasWaste() {
			s.sendToStation(v)
			return
		}
		s.leaveCollecting(v)
		v.State = SmallAvailable
		s.Log.Event(s.Clock, CatInfo, "vehicle %s idle in %s (no waste left, load %dkg)", v.Plate, v.CurrentZone.Name, v.Load)
	}
}

// leaveCollecting drops the vehicle from its zone's active count.
func (s *Simulator) leaveCollecting(v *SmallVehicle) {
	if v.State == SmallCollecting && v.CurrentZone != nil && v.CurrentZone.ActiveVehicles > 0 {
		v.CurrentZone.ActiveVehicles--
	}
}

// sendToStation routes a loaded vehicle to the best transfer station,
// scored by queue length and distance.
func (s *Simulator) sendToStation(v *SmallVehicle) {
	st := s.chooseStation(v)
	if st == nil {
		s.Log.Event(s.Clock, CatError, "no station for vehicle %s, holding in %s", v.Plate, v.CurrentZone.Name)
		return
	}
	s.leaveCollecting(v)
	minutes := s.Travel.Minutes(s.Clock, v.CurrentZone, st.Zone)
	if err := v.BeginTripToStation(st, minutes); err != nil {
		s.Log.Event(s.Clock, CatError, "trip rejected: %v", err)
		return
	}
	s.Log.Event(s.Clock, CatTrip, "vehicle %s heading to %s with %dkg (travel %dmin, trip %d)",
		v.Plate, st.Name, v.Load, minutes, v.Trips)
}

// chooseStation picks the lowest-cost station: ten points per queued vehicle
// plus five per km.
func (s *Simulator) chooseStation(v *SmallVehicle) *Station {
	var best *Station
	bestCost := 0.0
	for _, st := range s.Stations {
		cost := float64(st.Queue.Len())*10 + float64(s.Distances.Between(st.Zone.Name, v.CurrentZone.Name))*5
		if best == nil || cost < bestCost {
			best = st
			bestCost = cost
		}
	}
	return best
}

func (s *Simulator) arrive(v *SmallVehicle) {
	switch {
	case v.DestZone != nil:
		v.CurrentZone = v.DestZone
		v.DestZone = nil
		v.State = SmallCollecting
		v.CurrentZone.ActiveVehicles++
		s.Log.Event(s.Clock, CatArrive, "vehicle %s arrived in %s, collecting", v.Plate, v.CurrentZone.Name)
	case v.DestStation != nil:
		st := v.DestStation
		st.ReceiveSmall(v)
		s.Log.Event(s.Clock, CatArrive, "vehicle %s arrived at %s, queue length %d", v.Plate, st.Name, st.Queue.Len())
	default:
		v.State = SmallAvailable
		s.Log.Event(s.Clock, CatError, "vehicle %s arrived with no destination", v.Plate)
	}
}

// === Station updates ===

func (s *Simulator) updateStations() {
	inUse := 0
	for _, st := range s.Stations {
		st.IncrementWaits()

		if released := st.ReleaseLargeIfNeeded(); released != nil {
			s.departForLandfill(released, st)
		}

		if st.Large == nil && st.Queue.Len() > 0 {
			s.assignFromPool(st)
		}
		if moved := st.DrainBuffer(); moved > 0 {
			s.Log.Event(s.Clock, CatUnload, "%s: %dkg drained from buffer into %s", st.Name, moved, st.Large.Plate)
		}

		res := st.ProcessQueue(s.Config.UnloadMinutesPerTonne)
		if res.StartedKg > 0 {
			target := "buffer"
			if !res.ToBuffer && st.Large != nil {
				target = st.Large.Plate
			}
			s.Log.Event(s.Clock, CatUnload, "%s: vehicle %s unloading %dkg into %s",
				st.Name, st.Queue.Peek().Plate, res.StartedKg, target)
		}
		if res.Completed != nil {
			s.Stats.RecordQueueWait(res.WaitMinutes)
			s.Log.Event(s.Clock, CatUnload, "%s: vehicle %s done unloading after %dmin in queue",
				st.Name, res.Completed.Plate, res.WaitMinutes)
			if res.Completed.AtTripLimit() {
				res.Completed.CloseDay()
				s.Log.Event(s.Clock, CatInfo, "vehicle %s reached its trip limit (%d), closed for the day",
					res.Completed.Plate, res.Completed.TripLimit)
			}
		}

		s.escalate(st)

		if st.Large != nil {
			inUse++
		}
	}
	s.Stats.RecordLargeVehicleConcurrentUsage(inUse)
}

// escalate resolves a starved station: a queued vehicle past the maximum
// wait with no haul vehicle present gets one assigned, provisioned, or is
// redirected -- always within the same tick, never left behind.
func (s *Simulator) escalate(st *Station) {
	if st.Large != nil || !st.WaitExceeded() {
		return
	}
	if s.assignFromPool(st) {
		return
	}
	if s.canProvision() {
		if err := st.AssignLarge(s.provisionLarge()); err != nil {
			s.Log.Event(s.Clock, CatError, "escalation: %v", err)
		}
		return
	}
	s.redirectHead(st)
}

func (s *Simulator) assignFromPool(st *Station) bool {
	if len(s.idleLarge) == 0 {
		return false
	}
	v := s.idleLarge[0]
	s.idleLarge = s.idleLarge[1:]
	if err := st.AssignLarge(v); err != nil {
		s.idleLarge = append([]*LargeVehicle{v}, s.idleLarge...)
		s.Log.Event(s.Clock, CatError, "assignment rejected: %v", err)
		return false
	}
	s.Log.Event(s.Clock, CatAssign, "large vehicle %s assigned to %s", v.Plate, st.Name)
	return true
}

func (s *Simulator) canProvision() bool {
	return s.Config.MaxLargeVehicles == 0 || len(s.LargeFleet) < s.Config.MaxLargeVehicles
}

func (s *Simulator) provisionLarge() *LargeVehicle {
	v, err := NewLargeVehicle("", s.Config.LargeWaitTolerance, s.rng.ForSubsystem(SubsystemPlates))
	if err != nil {
		// Tolerance was validated at construction; this cannot happen.
		panic(err)
	}
	s.LargeFleet = append(s.LargeFleet, v)
	s.Stats.RecordLargeVehicleProvisioned()
	s.Log.Event(s.Clock, CatInfo, "large vehicle %s provisioned (fleet %d)", v.Plate, len(s.LargeFleet))
	return v
}

// redirectHead moves the head of a starved queue to the sibling station with
// the shortest queue. With no sibling to take it, a haul vehicle is
// provisioned past the cap: a queued vehicle is never dropped.
func (s *Simulator) redirectHead(st *Station) {
	var sibling *Station
	for _, other := range s.Stations {
		if other == st {
			continue
		}
		if sibling == nil || other.Queue.Len() < sibling.Queue.Len() {
			sibling = other
		}
	}
	if sibling == nil {
		s.Log.Event(s.Clock, CatError, "%s: no sibling station to redirect to, provisioning past the cap", st.Name)
		if err := st.AssignLarge(s.provisionLarge()); err != nil {
			s.Log.Event(s.Clock, CatError, "escalation: %v", err)
		}
		return
	}
	head := st.Queue.Peek()
	if head == nil || head.State != SmallQueued {
		return
	}
	v := st.Queue.Dequeue()
	s.Stats.RecordRedirect(v.QueueWait)
	v.QueueWait = 0
	v.DestStation = sibling
	v.DestZone = nil
	v.State = SmallInTransit
	v.TravelRemaining = max(s.Travel.Minutes(s.Clock, st.Zone, sibling.Zone), 1)
	s.Log.Event(s.Clock, CatInfo, "vehicle %s redirected %s -> %s (travel %dmin)", v.Plate, st.Name, sibling.Name, v.TravelRemaining)
}

func (s *Simulator) departForLandfill(v *LargeVehicle, origin *Station) {
	v.OriginStation = origin
	v.DestStation = origin
	minutes := s.Travel.Minutes(s.Clock, origin.Zone, s.Landfill)
	v.DepartForLandfill(minutes)
	reason := "tolerance exceeded"
	if v.Load >= v.Capacity {
		reason = "full"
	}
	s.Log.Event(s.Clock, CatTrip, "large vehicle %s leaves %s for the landfill with %dkg (%s, travel %dmin)",
		v.Plate, origin.Name, v.Load, reason, minutes)
}

// === Large vehicle updates ===

func (s *Simulator) updateLargeVehicles() {
	for _, v := range s.LargeFleet {
		switch v.State {
		case LargeWaiting:
			// Wait accrual happens in the station tick.
		case LargeEnRouteToLandfill:
			if v.Advance() {
				s.Log.Event(s.Clock, CatArrive, "large vehicle %s arrived at the landfill", v.Plate)
				v.BeginLandfillUnload(s.Config.LandfillUnloadMinutes)
			}
		case LargeUnloadingAtLandfill:
			if v.Advance() {
				kg := v.FinishLandfillUnload()
				s.Stats.RecordLandfillDelivery(kg)
				dest := v.DestStation
				if dest == nil {
					dest = v.OriginStation
				}
				v.DestStation = dest
				minutes := s.Travel.Minutes(s.Clock, s.Landfill, dest.Zone)
				v.BeginReturn(minutes)
				s.Log.Event(s.Clock, CatUnload, "large vehicle %s delivered %dkg to the landfill, returning to %s (%dmin)",
					v.Plate, kg, dest.Name, minutes)
			}
		case LargeReturning:
			if v.Advance() {
				dest := v.DestStation
				if dest != nil && dest.Large == nil {
					if err := dest.AssignLarge(v); err == nil {
						s.Log.Event(s.Clock, CatArrive, "large vehicle %s back at %s", v.Plate, dest.Name)
						continue
					}
				}
				v.ArriveAtStation()
				v.OriginStation = nil
				v.DestStation = nil
				s.idleLarge = append(s.idleLarge, v)
				s.Log.Event(s.Clock, CatArrive, "large vehicle %s returned to the idle pool", v.Plate)
			}
		}
	}
}

// === Day handling ===

// rollover closes the day: residual cargo is flushed to the landfill,
// queues and buffers drain fully, fleets reset, and zones regenerate.
func (s *Simulator) rollover() {
	s.flushResiduals()
	s.resetFleets()
	s.regenerateZones()
	s.Day++
	s.Log.Event(s.Clock, CatInfo, "day %d closed: %dkg collected, %dkg landfilled",
		s.Day, s.Stats.TotalCollected(), s.Stats.TotalLandfilled())
}

func (s *Simulator) flushResiduals() {
	// Finish half-loaded claims instantly.
	for _, v := range s.SmallFleet {
		v.Load += v.PendingLoad
		v.PendingLoad = 0
		v.CollectRemaining = 0
	}

	// Drain every station queue in arrival order.
	for _, st := range s.Stations {
		for st.Queue.Len() > 0 {
			v := st.Queue.Dequeue()
			s.Stats.RecordQueueWait(v.QueueWait)
			s.forceDeposit(st, v.Load)
			v.Load = 0
			v.QueueWait = 0
			v.UnloadRemaining = 0
			v.UnloadAmount = 0
			v.State = SmallAvailable
		}
		if st.Buffer > 0 {
			kg := st.Buffer
			st.Buffer = 0
			s.forceDeposit(st, kg)
		}
	}

	// Cargo still aboard small vehicles elsewhere goes to the best station.
	for _, v := range s.SmallFleet {
		if v.Load == 0 {
			continue
		}
		st := v.DestStation
		if st == nil {
			st = s.chooseStation(v)
		}
		if st != nil {
			s.forceDeposit(st, v.Load)
			v.Load = 0
		}
	}

	// Ship everything the haul fleet holds and bring the fleet home.
	for _, v := range s.LargeFleet {
		if v.Load > 0 {
			s.Stats.RecordLandfillDelivery(v.Load)
			v.Load = 0
		}
	}
}

// forceDeposit pushes kg through a station's haul vehicle to the landfill
// immediately, provisioning as needed. Used only at day rollover.
func (s *Simulator) forceDeposit(st *Station, kg int) {
	for kg > 0 {
		if st.Large == nil {
			if !s.assignFromPool(st) {
				if err := st.AssignLarge(s.provisionLarge()); err != nil {
					s.Log.Event(s.Clock, CatError, "rollover flush: %v", err)
					return
				}
			}
		}
		taken := st.Large.Receive(kg)
		kg -= taken
		if st.Large.FreeCapacity() == 0 {
			s.Stats.RecordLandfillDelivery(st.Large.FinishLandfillUnload())
		}
	}
}

func (s *Simulator) resetFleets() {
	for _, z := range s.Zones {
		z.ActiveVehicles = 0
	}
	for _, v := range s.SmallFleet {
		v.ResetForNewDay()
	}
	assigned := make(map[*LargeVehicle]bool)
	for _, st := range s.Stations {
		if st.Large != nil {
			st.Large.ArriveAtStation()
			assigned[st.Large] = true
		}
	}
	s.idleLarge = s.idleLarge[:0]
	for _, v := range s.LargeFleet {
		if assigned[v] {
			continue
		}
		v.ArriveAtStation()
		v.OriginStation = nil
		v.DestStation = nil
		s.idleLarge = append(s.idleLarge, v)
	}
}

func (s *Simulator) regenerateZones() {
	rng := s.rng.ForSubsystem(SubsystemGeneration)
	for _, z := range s.Zones {
		z.DailyGenerated = 0
		kg := z.Generate(rng)
		s.Stats.RecordGeneration(z.Name, kg)
		s.Log.Event(s.Clock, CatInfo, "%s generated %dkg of waste (%dkg on the ground)", z.Name, kg, z.Accumulated)
	}
}

// generateWaste is the optional intra-day generation cycle.
func (s *Simulator) generateWaste() {
	rng := s.rng.ForSubsystem(SubsystemGeneration)
	for _, z := range s.Zones {
		kg := z.Generate(rng)
		s.Stats.RecordGeneration(z.Name, kg)
		if kg > 0 {
			s.Log.Event(s.Clock, CatCollect, "%s generated %dkg of waste", z.Name, kg)
		}
	}
}

func (s *Simulator) snapshotStats() {
	if st, ok := s.Stats.(*Stats); ok {
		st.SimulatedMinutes = s.Clock
	}
	s.Log.Event(s.Clock, CatInfo, "snapshot: collected %dkg, landfilled %dkg",
		s.Stats.TotalCollected(), s.Stats.TotalLandfilled())
}
