package sim

import (
	"testing"
)

// singleZoneConfig is the smallest closed loop: one zone, one station in it,
// landfill in the same zone, fixed generation so runs are fully deterministic.
func singleZoneConfig() Config {
	return Config{
		Seed: 7,
		Zones: []ZoneConfig{
			{Name: "Norte", WasteMin: 2000, WasteMax: 2000},
		},
		Stations: []StationConfig{
			{Name: "TS-Norte", Zone: "Norte", MaxQueueWait: 45},
		},
		LandfillZone:           "Norte",
		SmallVehicles:          map[int]int{2: 1},
		TripLimit:              10,
		LargeVehicles:          1,
		LargeWaitTolerance:     30,
		VehiclesPerZone:        2,
		CollectMinutesPerTonne: 3,
		UnloadMinutesPerTonne:  1,
		LandfillUnloadMinutes:  30,
		SpeedKmh:               40,
		SpeedPeakKmh:           20,
		MaxDispatchDistanceKm:  50,
		Log:                    LogNormal,
	}
}

func TestSimulator_WasteConservation_EveryTick(t *testing.T) {
	// GIVEN the default city
	s := quietSimulator(t, DefaultConfig())
	stats := s.Stats.(*Stats)

	// WHEN a full day runs, checking the books after every minute
	for i := 0; i < MinutesPerDay; i++ {
		s.Tick()

		// THEN generated waste equals collected plus what is on the ground
		onGround := 0
		for _, z := range s.Zones {
			if z.Accumulated < 0 {
				t.Fatalf("tick %d: zone %s accumulated went negative: %d", s.Clock, z.Name, z.Accumulated)
			}
			onGround += z.Accumulated
		}
		if stats.TotalGenerated != stats.Collected+onGround {
			t.Fatalf("tick %d: generated %d != collected %d + on ground %d",
				s.Clock, stats.TotalGenerated, stats.Collected, onGround)
		}
		if diff := stats.Collected - stats.Landfilled; diff != cargoInFlight(s) {
			t.Fatalf("tick %d: collected-landfilled=%d but %dkg in flight",
				s.Clock, diff, cargoInFlight(s))
		}
		// AND no vehicle ever exceeds its capacity
		for _, v := range s.SmallFleet {
			if v.Load+v.PendingLoad > v.Capacity {
				t.Fatalf("tick %d: vehicle %s overfilled: %d+%d > %d",
					s.Clock, v.Plate, v.Load, v.PendingLoad, v.Capacity)
			}
		}
		for _, v := range s.LargeFleet {
			if v.Load > v.Capacity {
				t.Fatalf("tick %d: large vehicle %s overfilled: %d > %d",
					s.Clock, v.Plate, v.Load, v.Capacity)
			}
		}
	}
}

func TestSimulator_DayCompletion_FastForwardsAndResets(t *testing.T) {
	// GIVEN a small closed loop that finishes its work well before midnight
	s := quietSimulator(t, singleZoneConfig())

	// WHEN ticking until the day rolls over
	for i := 0; i < MinutesPerDay && s.Day == 0; i++ {
		s.Tick()
	}

	// THEN the day closed early and the clock jumped to the next boundary
	if s.Day != 1 {
		t.Fatalf("day did not complete: day=%d clock=%d", s.Day, s.Clock)
	}
	if s.Clock%MinutesPerDay != 0 {
		t.Errorf("clock not on a day boundary after early completion: %d", s.Clock)
	}
	if s.Clock >= MinutesPerDay+1 {
		t.Errorf("clock overshot the boundary: %d", s.Clock)
	}
	// AND the fleet starts the new day with fresh trip counters
	for _, v := range s.SmallFleet {
		if v.Trips != 0 {
			t.Errorf("vehicle %s trips not reset: %d", v.Plate, v.Trips)
		}
		if v.State == SmallDayClosed {
			t.Errorf("vehicle %s still closed after rollover", v.Plate)
		}
	}
	// AND the cargo ledger balances: day two may already have claims in
	// flight, but nothing from day one is unaccounted for.
	if diff := s.Stats.TotalCollected() - s.Stats.TotalLandfilled(); diff != cargoInFlight(s) {
		t.Errorf("ledger imbalance after rollover: collected-landfilled=%d, in flight=%d",
			diff, cargoInFlight(s))
	}
}

// cargoInFlight sums every kilogram collected but not yet landfilled: aboard
// small vehicles, in station buffers, aboard haul vehicles.
func cargoInFlight(s *Simulator) int {
	kg := 0
	for _, v := range s.SmallFleet {
		kg += v.Load + v.PendingLoad
	}
	for _, st := range s.Stations {
		kg += st.Buffer
	}
	for _, v := range s.LargeFleet {
		kg += v.Load
	}
	return kg
}

func TestSimulator_Escalation_SameTickProvisioning(t *testing.T) {
	// GIVEN a station with a starving queue, no haul vehicle anywhere
	cfg := quietConfig()
	s := quietSimulator(t, cfg)
	st := s.Stations[0]
	v := s.SmallFleet[0]
	v.Load = 1000
	st.ReceiveSmall(v)
	v.QueueWait = st.MaxQueueWait // one more minute crosses the threshold

	// WHEN the station tick runs
	s.updateStations()

	// THEN a haul vehicle is provisioned and attached within the same tick
	if st.Large == nil {
		t.Fatal("starved station got no large vehicle")
	}
	if len(s.LargeFleet) != 1 {
		t.Errorf("fleet size: got %d, want 1", len(s.LargeFleet))
	}
	if got := s.Stats.(*Stats).LargeProvisioned; got != 1 {
		t.Errorf("provisioned counter: got %d, want 1", got)
	}
}

func TestSimulator_Escalation_PrefersIdlePoolOverProvisioning(t *testing.T) {
	// GIVEN a starving queue and an idle haul vehicle in the pool
	cfg := quietConfig()
	cfg.LargeVehicles = 1
	s := quietSimulator(t, cfg)
	st := s.Stations[0]
	v := s.SmallFleet[0]
	v.Load = 1000
	st.ReceiveSmall(v)
	v.QueueWait = st.MaxQueueWait

	// WHEN the station tick runs
	s.updateStations()

	// THEN the pool vehicle is used; nothing new is provisioned
	if st.Large == nil {
		t.Fatal("starved station got no large vehicle")
	}
	if got := s.Stats.(*Stats).LargeProvisioned; got != 1 {
		t.Errorf("provisioned counter: got %d, want 1 (the initial fleet only)", got)
	}
}

func TestSimulator_Escalation_RedirectsWhenCapped(t *testing.T) {
	// GIVEN two stations, a capped haul fleet fully busy elsewhere
	cfg := quietConfig()
	cfg.Stations = append(cfg.Stations, StationConfig{Name: "TS-Sul", Zone: "Sul", MaxQueueWait: 45})
	cfg.LargeVehicles = 1
	cfg.MaxLargeVehicles = 1
	s := quietSimulator(t, cfg)

	// Pin the only haul vehicle to the sibling station.
	lv := s.idleLarge[0]
	s.idleLarge = nil
	if err := s.Stations[1].AssignLarge(lv); err != nil {
		t.Fatalf("AssignLarge: %v", err)
	}

	starved := s.Stations[0]
	v := s.SmallFleet[0]
	v.Load = 1000
	starved.ReceiveSmall(v)
	v.QueueWait = starved.MaxQueueWait + 1

	// WHEN escalation runs
	s.escalate(starved)

	// THEN the head is redirected to the sibling, not dropped
	if starved.Queue.Len() != 0 {
		t.Fatal("starved queue still holds the vehicle")
	}
	if v.State != SmallInTransit || v.DestStation != s.Stations[1] {
		t.Errorf("vehicle not redirected: state=%s dest=%v", v.State, v.DestStation)
	}
	if len(s.LargeFleet) != 1 {
		t.Errorf("fleet grew past the cap: %d", len(s.LargeFleet))
	}
	// A redirection is not a completed unload; only its wait is recorded.
	st := s.Stats.(*Stats)
	if st.Unloads != 0 || st.Redirects != 1 {
		t.Errorf("redirect accounting: unloads=%d redirects=%d, want 0/1", st.Unloads, st.Redirects)
	}
}

func TestSimulator_ClaimCollections_TinyResidueDrains(t *testing.T) {
	// GIVEN two 2000kg collectors sharing a zone down to its last 3kg
	cfg := quietConfig()
	cfg.SmallVehicles = map[int]int{1: 2}
	s := quietSimulator(t, cfg)
	z := zonesByName(s)["Norte"]
	z.Accumulated = 3
	for _, v := range s.SmallFleet {
		v.CurrentZone = z
		v.State = SmallCollecting
		z.ActiveVehicles++
	}

	// WHEN minutes pass; the floored fair share of 3kg across 4000kg of
	// claiming capacity rounds to zero
	for i := 0; i < 60 && z.Accumulated > 0; i++ {
		s.updateSmallVehicles()
	}

	// THEN the residue is still fully claimed, nobody starves on it
	if z.Accumulated != 0 {
		t.Fatalf("residue never collected: %dkg still on the ground", z.Accumulated)
	}
	for i := 0; i < 60; i++ {
		s.updateSmallVehicles()
	}
	for _, v := range s.SmallFleet {
		if v.State == SmallCollecting {
			t.Errorf("vehicle %s pinned COLLECTING with %dkg aboard after the zone drained",
				v.Plate, v.Load+v.PendingLoad)
		}
	}
	// AND the books still balance
	st := s.Stats.(*Stats)
	if diff := st.Collected - st.Landfilled; diff != cargoInFlight(s) {
		t.Errorf("ledger imbalance: collected-landfilled=%d, in flight=%d", diff, cargoInFlight(s))
	}
}

func TestSimulator_DayCompletion_ReachableWithTinyResidue(t *testing.T) {
	// GIVEN a closed loop whose fleet splits the zone across two vehicles,
	// so an odd generation amount leaves integer-division dust behind
	cfg := singleZoneConfig()
	cfg.Zones[0].WasteMin = 2001
	cfg.Zones[0].WasteMax = 2001
	cfg.SmallVehicles = map[int]int{1: 2}
	s := quietSimulator(t, cfg)

	// WHEN ticking a full day's worth of minutes
	for i := 0; i < MinutesPerDay && s.Day == 0; i++ {
		s.Tick()
	}

	// THEN the day completes early instead of stalling on the residue
	if s.Day != 1 {
		left := 0
		for _, z := range s.Zones {
			left += z.Accumulated
		}
		t.Fatalf("day never completed: clock=%d, %dkg left on the ground", s.Clock, left)
	}
	if s.Clock%MinutesPerDay != 0 {
		t.Errorf("clock not fast-forwarded to the boundary: %d", s.Clock)
	}
}

func TestSimulator_FlushResiduals_NothingStranded(t *testing.T) {
	// GIVEN cargo scattered across a queue, a buffer and a vehicle in transit
	cfg := quietConfig()
	cfg.Stations[0].BufferCapacity = 5000
	s := quietSimulator(t, cfg)
	st := s.Stations[0]
	st.Buffer = 1200

	queued := s.SmallFleet[0]
	queued.Load = 800
	st.ReceiveSmall(queued)

	// WHEN the day-end flush runs
	s.flushResiduals()

	// THEN every kilogram reached the landfill statistics
	if got := s.Stats.TotalLandfilled(); got != 2000 {
		t.Errorf("landfilled: got %d, want 2000", got)
	}
	if st.Queue.Len() != 0 || st.Buffer != 0 {
		t.Errorf("station not drained: queue=%d buffer=%d", st.Queue.Len(), st.Buffer)
	}
	if queued.Load != 0 {
		t.Errorf("queued vehicle still loaded: %d", queued.Load)
	}
	for _, lv := range s.LargeFleet {
		if lv.Load != 0 {
			t.Errorf("large vehicle %s still loaded: %d", lv.Plate, lv.Load)
		}
	}
}

func TestSimulator_Determinism_SameSeedSameRun(t *testing.T) {
	// GIVEN two engines built from the identical configuration
	a := quietSimulator(t, DefaultConfig())
	b := quietSimulator(t, DefaultConfig())

	// WHEN both run a full day
	a.RunDays(1)
	b.RunDays(1)

	// THEN every observable aggregate matches
	sa, sb := a.Stats.(*Stats), b.Stats.(*Stats)
	if sa.TotalGenerated != sb.TotalGenerated {
		t.Errorf("generated: %d vs %d", sa.TotalGenerated, sb.TotalGenerated)
	}
	if sa.Collected != sb.Collected {
		t.Errorf("collected: %d vs %d", sa.Collected, sb.Collected)
	}
	if sa.Landfilled != sb.Landfilled {
		t.Errorf("landfilled: %d vs %d", sa.Landfilled, sb.Landfilled)
	}
	if a.Clock != b.Clock || a.Day != b.Day {
		t.Errorf("clocks diverged: %d/%d vs %d/%d", a.Clock, a.Day, b.Clock, b.Day)
	}
	for i := range a.SmallFleet {
		if a.SmallFleet[i].Plate != b.SmallFleet[i].Plate {
			t.Errorf("fleet plates diverged at %d: %s vs %s", i, a.SmallFleet[i].Plate, b.SmallFleet[i].Plate)
		}
	}
}

func TestSimulator_RunDays_EverythingLandfilledAtBoundary(t *testing.T) {
	// GIVEN the closed single-zone loop
	s := quietSimulator(t, singleZoneConfig())

	// WHEN two full days run
	s.RunDays(2)

	// THEN the clock sits on a boundary with clean books at the last rollover
	if s.Clock%MinutesPerDay != 0 {
		t.Errorf("clock off boundary: %d", s.Clock)
	}
	if s.Day < 2 {
		t.Errorf("days completed: got %d, want at least 2", s.Day)
	}
	if got := s.Stats.(*Stats).PeakLargeInUse; got < 1 {
		t.Errorf("peak large usage never recorded: %d", got)
	}
}

func TestNewSimulator_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Zones = nil
	if _, err := NewSimulator(cfg); err == nil {
		t.Error("expected error for config with no zones")
	}

	cfg = DefaultConfig()
	cfg.Distances = append(cfg.Distances, DistanceConfig{From: "Norte", To: "Atlantis", Km: 5})
	if _, err := NewSimulator(cfg); err == nil {
		t.Error("expected error for distance entry naming an unknown zone")
	}
}
