package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ZoneConfig declares one urban zone.
type ZoneConfig struct {
	Name         string `yaml:"name"`
	WasteMin     int    `yaml:"waste_min"` // kg per generation cycle
	WasteMax     int    `yaml:"waste_max"`
	PeakDelay    int    `yaml:"peak_delay"`     // minutes added during peak windows
	OffPeakDelay int    `yaml:"off_peak_delay"` // minutes added off-peak
}

// StationConfig declares one transfer station.
type StationConfig struct {
	Name           string `yaml:"name"`
	Zone           string `yaml:"zone"`
	MaxQueueWait   int    `yaml:"max_queue_wait"`  // minutes
	BufferCapacity int    `yaml:"buffer_capacity"` // kg; 0 disables the buffer
}

// DistanceConfig declares one symmetric inter-zone distance.
type DistanceConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Km   int    `yaml:"km"`
}

// Config is the single configuration struct the engine consumes at startup.
// It performs no parsing itself beyond LoadConfig; callers assemble it from
// YAML, flags, or code and must pass Validate before NewSimulator.
type Config struct {
	Seed int64 `yaml:"seed"`

	Zones     []ZoneConfig     `yaml:"zones"`
	Stations  []StationConfig  `yaml:"stations"`
	Distances []DistanceConfig `yaml:"distances"`

	// LandfillZone names the zone hosting the landfill. It does not have to
	// appear in Zones; an unlisted landfill generates no waste.
	LandfillZone string `yaml:"landfill_zone"`

	// SmallVehicles maps capacity class (1-4 for 2000/4000/8000/10000 kg)
	// to fleet count.
	SmallVehicles map[int]int `yaml:"small_vehicles"`
	TripLimit     int         `yaml:"trip_limit"` // per-day trips per small vehicle; 0 = unlimited

	LargeVehicles      int `yaml:"large_vehicles"`       // initial haul fleet size
	MaxLargeVehicles   int `yaml:"max_large_vehicles"`   // provisioning cap; 0 = unlimited
	LargeWaitTolerance int `yaml:"large_wait_tolerance"` // minutes

	VehiclesPerZone int `yaml:"vehicles_per_zone"` // dispatch concurrency baseline

	// GenerationInterval adds intra-day waste generation every N minutes.
	// 0 generates only at day rollover.
	GenerationInterval int `yaml:"generation_interval"`

	CollectMinutesPerTonne int `yaml:"collect_minutes_per_tonne"`
	UnloadMinutesPerTonne  int `yaml:"unload_minutes_per_tonne"`
	LandfillUnloadMinutes  int `yaml:"landfill_unload_minutes"`

	SpeedKmh              int `yaml:"speed_kmh"`
	SpeedPeakKmh          int `yaml:"speed_peak_kmh"`
	MaxDispatchDistanceKm int `yaml:"max_dispatch_distance_km"`

	Log LogMode `yaml:"log"`
}

// DefaultConfig returns a five-zone city with two stations, mirroring the
// reference scenario.
func DefaultConfig() Config {
	return Config{
		Seed: 42,
		Zones: []ZoneConfig{
			{Name: "Norte", WasteMin: 20000, WasteMax: 40000, PeakDelay: 10, OffPeakDelay: 4},
			{Name: "Sul", WasteMin: 20000, WasteMax: 36000, PeakDelay: 8, OffPeakDelay: 3},
			{Name: "Leste", WasteMin: 16000, WasteMax: 30000, PeakDelay: 6, OffPeakDelay: 2},
			{Name: "Oeste", WasteMin: 16000, WasteMax: 30000, PeakDelay: 6, OffPeakDelay: 2},
			{Name: "Centro", WasteMin: 24000, WasteMax: 44000, PeakDelay: 12, OffPeakDelay: 5},
		},
		Stations: []StationConfig{
			{Name: "Estacao A", Zone: "Norte", MaxQueueWait: 45, BufferCapacity: 0},
			{Name: "Estacao B", Zone: "Sul", MaxQueueWait: 45, BufferCapacity: 0},
		},
		Distances: []DistanceConfig{
			{From: "Norte", To: "Sul", Km: 18},
			{From: "Norte", To: "Leste", Km: 12},
			{From: "Norte", To: "Oeste", Km: 14},
			{From: "Norte", To: "Centro", Km: 8},
			{From: "Sul", To: "Leste", Km: 13},
			{From: "Sul", To: "Oeste", Km: 11},
			{From: "Sul", To: "Centro", Km: 9},
			{From: "Leste", To: "Oeste", Km: 20},
			{From: "Leste", To: "Centro", Km: 7},
			{From: "Oeste", To: "Centro", Km: 8},
		},
		LandfillZone:           "Oeste",
		SmallVehicles:          map[int]int{1: 2, 2: 3, 3: 2, 4: 1},
		TripLimit:              10,
		LargeVehicles:          1,
		LargeWaitTolerance:     120,
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

// LoadConfig reads a YAML configuration file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects invalid configuration before the engine starts. All
// violations are construction-time errors; the engine never starts with
// invalid entities.
func (c *Config) Validate() error {
	if len(c.Zones) == 0 {
		return fmt.Errorf("config: at least one zone is required")
	}
	zoneNames := make(map[string]bool, len(c.Zones))
	for _, z := range c.Zones {
		if z.Name == "" {
			return fmt.Errorf("config: zone with empty name")
		}
		if zoneNames[z.Name] {
			return fmt.Errorf("config: duplicate zone %q", z.Name)
		}
		zoneNames[z.Name] = true
		if z.WasteMin < 0 || z.WasteMax < z.WasteMin {
			return fmt.Errorf("config: zone %q has invalid waste bounds [%d, %d]", z.Name, z.WasteMin, z.WasteMax)
		}
	}
	if len(c.Stations) == 0 {
		return fmt.Errorf("config: at least one station is required")
	}
	for _, st := range c.Stations {
		if st.Name == "" {
			return fmt.Errorf("config: station with empty name")
		}
		if !zoneNames[st.Zone] && st.Zone != c.LandfillZone {
			return fmt.Errorf("config: station %q references unknown zone %q", st.Name, st.Zone)
		}
		if st.MaxQueueWait <= 0 {
			return fmt.Errorf("config: station %q max queue wait must be positive", st.Name)
		}
		if st.BufferCapacity < 0 {
			return fmt.Errorf("config: station %q buffer capacity must be non-negative", st.Name)
		}
	}
	if c.LandfillZone == "" {
		return fmt.Errorf("config: landfill zone is required")
	}
	// Every travelable pair needs a distance entry: all declared zones, plus
	// the landfill zone when it sits outside the declared list.
	points := make([]string, 0, len(c.Zones)+1)
	for _, z := range c.Zones {
		points = append(points, z.Name)
	}
	if !zoneNames[c.LandfillZone] {
		points = append(points, c.LandfillZone)
	}
	known := make(map[string]bool, len(c.Distances))
	for _, d := range c.Distances {
		known[pairKey(d.From, d.To)] = true
	}
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if !known[pairKey(points[i], points[j])] {
				return fmt.Errorf("config: missing distance between %q and %q", points[i], points[j])
			}
		}
	}
	total := 0
	for class, count := range c.SmallVehicles {
		if class < 1 || class > len(SmallVehicleCapacities) {
			return fmt.Errorf("config: unknown small vehicle capacity class %d", class)
		}
		if count < 0 {
			return fmt.Errorf("config: negative count for capacity class %d", class)
		}
		total += count
	}
	if total == 0 {
		return fmt.Errorf("config: at least one small vehicle is required")
	}
	if c.TripLimit < 0 {
		return fmt.Errorf("config: trip limit must be non-negative")
	}
	if c.LargeVehicles < 0 {
		return fmt.Errorf("config: large vehicle count must be non-negative")
	}
	if c.MaxLargeVehicles > 0 && c.LargeVehicles > c.MaxLargeVehicles {
		return fmt.Errorf("config: %d large vehicles exceed cap of %d", c.LargeVehicles, c.MaxLargeVehicles)
	}
	if c.LargeWaitTolerance <= 0 {
		return fmt.Errorf("config: large vehicle wait tolerance must be positive")
	}
	if c.VehiclesPerZone <= 0 {
		return fmt.Errorf("config: vehicles per zone must be positive")
	}
	if c.GenerationInterval < 0 {
		return fmt.Errorf("config: generation interval must be non-negative")
	}
	if c.CollectMinutesPerTonne <= 0 || c.UnloadMinutesPerTonne <= 0 || c.LandfillUnloadMinutes <= 0 {
		return fmt.Errorf("config: per-tonne and landfill unload durations must be positive")
	}
	if c.SpeedKmh <= 0 || c.SpeedPeakKmh <= 0 {
		return fmt.Errorf("config: travel speeds must be positive")
	}
	if c.MaxDispatchDistanceKm <= 0 {
		return fmt.Errorf("config: max dispatch distance must be positive")
	}
	if c.Log != LogNormal && c.Log != LogDebug {
		return fmt.Errorf("config: log mode must be %q or %q, got %q", LogNormal, LogDebug, c.Log)
	}
	return nil
}
