// Save/resume support: the full engine state round-trips through a YAML
// document so a multi-day run can be stopped and picked up later.

package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot is the persisted form of a Simulator.
type Snapshot struct {
	Config Config `yaml:"config"`
	Clock  int    `yaml:"clock"`
	Day    int    `yaml:"day"`
	Stats  *Stats `yaml:"stats"`

	Zones      []ZoneSnapshot         `yaml:"zones"`
	SmallFleet []SmallVehicleSnapshot `yaml:"small_fleet"`
	LargeFleet []LargeVehicleSnapshot `yaml:"large_fleet"`
	Stations   []StationSnapshot      `yaml:"stations"`
	IdleLarge  []string               `yaml:"idle_large"` // plates
}

type ZoneSnapshot struct {
	Name           string `yaml:"name"`
	Accumulated    int    `yaml:"accumulated"`
	ActiveVehicles int    `yaml:"active_vehicles"`
	DailyGenerated int    `yaml:"daily_generated"`
}

type SmallVehicleSnapshot struct {
	Plate            string `yaml:"plate"`
	Capacity         int    `yaml:"capacity"`
	Load             int    `yaml:"load"`
	Trips            int    `yaml:"trips"`
	TripLimit        int    `yaml:"trip_limit"`
	State            string `yaml:"state"`
	HomeZone         string `yaml:"home_zone"`
	CurrentZone      string `yaml:"current_zone,omitempty"`
	DestZone         string `yaml:"dest_zone,omitempty"`
	DestStation      string `yaml:"dest_station,omitempty"`
	TravelRemaining  int    `yaml:"travel_remaining"`
	CollectRemaining int    `yaml:"collect_remaining"`
	PendingLoad      int    `yaml:"pending_load"`
	UnloadRemaining  int    `yaml:"unload_remaining"`
	UnloadAmount     int    `yaml:"unload_amount"`
	QueueWait        int    `yaml:"queue_wait"`
}

type LargeVehicleSnapshot struct {
	Plate         string `yaml:"plate"`
	Load          int    `yaml:"load"`
	WaitTolerance int    `yaml:"wait_tolerance"`
	WaitAccum     int    `yaml:"wait_accum"`
	State         string `yaml:"state"`
	OriginStation string `yaml:"origin_station,omitempty"`
	DestStation   string `yaml:"dest_station,omitempty"`
	Remaining     int    `yaml:"remaining"`
}

type StationSnapshot struct {
	Name   string   `yaml:"name"`
	Buffer int      `yaml:"buffer"`
	Queue  []string `yaml:"queue"` // small-vehicle plates in arrival order
	Large  string   `yaml:"large,omitempty"`
}

// Snapshot captures the current engine state. Must be called with the tick
// loop quiesced (see Runner.Snapshot).
func (s *Simulator) Snapshot() *Snapshot {
	sn := &Snapshot{
		Config: s.Config,
		Clock:  s.Clock,
		Day:    s.Day,
	}
	if st, ok := s.Stats.(*Stats); ok {
		st.SimulatedMinutes = s.Clock
		sn.Stats = st
	}
	for _, z := range s.Zones {
		sn.Zones = append(sn.Zones, ZoneSnapshot{
			Name:           z.Name,
			Accumulated:    z.Accumulated,
			ActiveVehicles: z.ActiveVehicles,
			DailyGenerated: z.DailyGenerated,
		})
	}
	for _, v := range s.SmallFleet {
		sn.SmallFleet = append(sn.SmallFleet, SmallVehicleSnapshot{
			Plate:            v.Plate,
			Capacity:         v.Capacity,
			Load:             v.Load,
			Trips:            v.Trips,
			TripLimit:        v.TripLimit,
			State:            v.State.String(),
			HomeZone:         zoneName(v.HomeZone),
			CurrentZone:      zoneName(v.CurrentZone),
			DestZone:         zoneName(v.DestZone),
			DestStation:      stationName(v.DestStation),
			TravelRemaining:  v.TravelRemaining,
			CollectRemaining: v.CollectRemaining,
			PendingLoad:      v.PendingLoad,
			UnloadRemaining:  v.UnloadRemaining,
			UnloadAmount:     v.UnloadAmount,
			QueueWait:        v.QueueWait,
		})
	}
	for _, v := range s.LargeFleet {
		sn.LargeFleet = append(sn.LargeFleet, LargeVehicleSnapshot{
			Plate:         v.Plate,
			Load:          v.Load,
			WaitTolerance: v.WaitTolerance,
			WaitAccum:     v.WaitAccum,
			State:         v.State.String(),
			OriginStation: stationName(v.OriginStation),
			DestStation:   stationName(v.DestStation),
			Remaining:     v.Remaining,
		})
	}
	for _, st := range s.Stations {
		ss := StationSnapshot{Name: st.Name, Buffer: st.Buffer}
		for _, v := range st.Queue.Items() {
			ss.Queue = append(ss.Queue, v.Plate)
		}
		if st.Large != nil {
			ss.Large = st.Large.Plate
		}
		sn.Stations = append(sn.Stations, ss)
	}
	for _, v := range s.idleLarge {
		sn.IdleLarge = append(sn.IdleLarge, v.Plate)
	}
	return sn
}

// Restore rebuilds a Simulator from a snapshot. Every entity field from the
// snapshot wins over freshly constructed state.
func Restore(sn *Snapshot) (*Simulator, error) {
	s, err := NewSimulator(sn.Config)
	if err != nil {
		return nil, err
	}
	s.Clock = sn.Clock
	s.Day = sn.Day
	if sn.Stats != nil {
		if sn.Stats.Zones == nil {
			sn.Stats.Zones = make(map[string]*ZoneStats)
		}
		s.Stats = sn.Stats
	}

	zones := make(map[string]*Zone, len(s.Zones)+1)
	for _, z := range s.Zones {
		zones[z.Name] = z
	}
	zones[s.Landfill.Name] = s.Landfill
	for _, zs := range sn.Zones {
		z, ok := zones[zs.Name]
		if !ok {
			return nil, fmt.Errorf("snapshot references unknown zone %q", zs.Name)
		}
		z.Accumulated = zs.Accumulated
		z.ActiveVehicles = zs.ActiveVehicles
		z.DailyGenerated = zs.DailyGenerated
	}

	stations := make(map[string]*Station, len(s.Stations))
	for _, st := range s.Stations {
		stations[st.Name] = st
	}

	s.SmallFleet = nil
	smalls := make(map[string]*SmallVehicle, len(sn.SmallFleet))
	for _, vs := range sn.SmallFleet {
		state, err := parseSmallState(vs.State)
		if err != nil {
			return nil, err
		}
		v := &SmallVehicle{
			Plate:            vs.Plate,
			Capacity:         vs.Capacity,
			Load:             vs.Load,
			Trips:            vs.Trips,
			TripLimit:        vs.TripLimit,
			State:            state,
			HomeZone:         zones[vs.HomeZone],
			CurrentZone:      zones[vs.CurrentZone],
			DestZone:         zones[vs.DestZone],
			DestStation:      stations[vs.DestStation],
			TravelRemaining:  vs.TravelRemaining,
			CollectRemaining: vs.CollectRemaining,
			PendingLoad:      vs.PendingLoad,
			UnloadRemaining:  vs.UnloadRemaining,
			UnloadAmount:     vs.UnloadAmount,
			QueueWait:        vs.QueueWait,
		}
		s.SmallFleet = append(s.SmallFleet, v)
		smalls[v.Plate] = v
	}

	s.LargeFleet = nil
	larges := make(map[string]*LargeVehicle, len(sn.LargeFleet))
	for _, vs := range sn.LargeFleet {
		state, err := parseLargeState(vs.State)
		if err != nil {
			return nil, err
		}
		v := &LargeVehicle{
			Plate:         vs.Plate,
			Capacity:      LargeVehicleCapacity,
			Load:          vs.Load,
			WaitTolerance: vs.WaitTolerance,
			WaitAccum:     vs.WaitAccum,
			State:         state,
			OriginStation: stations[vs.OriginStation],
			DestStation:   stations[vs.DestStation],
			Remaining:     vs.Remaining,
		}
		s.LargeFleet = append(s.LargeFleet, v)
		larges[v.Plate] = v
	}

	for _, ss := range sn.Stations {
		st, ok := stations[ss.Name]
		if !ok {
			return nil, fmt.Errorf("snapshot references unknown station %q", ss.Name)
		}
		st.Buffer = ss.Buffer
		st.Queue = &VehicleQueue{}
		for _, plate := range ss.Queue {
			v, ok := smalls[plate]
			if !ok {
				return nil, fmt.Errorf("station %s queue references unknown vehicle %q", ss.Name, plate)
			}
			st.Queue.Enqueue(v)
		}
		st.Large = larges[ss.Large]
	}

	s.idleLarge = nil
	for _, plate := range sn.IdleLarge {
		v, ok := larges[plate]
		if !ok {
			return nil, fmt.Errorf("idle pool references unknown vehicle %q", plate)
		}
		s.idleLarge = append(s.idleLarge, v)
	}
	return s, nil
}

// Save writes the snapshot as YAML.
func (sn *Snapshot) Save(path string) error {
	data, err := yaml.Marshal(sn)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot to %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot file back.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var sn Snapshot
	if err := yaml.Unmarshal(data, &sn); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &sn, nil
}

func zoneName(z *Zone) string {
	if z == nil {
		return ""
	}
	return z.Name
}

func stationName(st *Station) string {
	if st == nil {
		return ""
	}
	return st.Name
}

func parseSmallState(s string) (SmallVehicleState, error) {
	for st := SmallAvailable; st <= SmallDayClosed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown small vehicle state %q", s)
}

func parseLargeState(s string) (LargeVehicleState, error) {
	for st := LargeWaiting; st <= LargeReturning; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown large vehicle state %q", s)
}
