// Tracks simulation-wide and per-zone statistics for final reporting.

package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// StatsRecorder is the narrow interface the engine reports through. The
// day-completion predicate depends on the two read accessors.
type StatsRecorder interface {
	RecordCollection(zone string, kg int)
	RecordGeneration(zone string, kg int)
	RecordLandfillDelivery(kg int)
	RecordQueueWait(minutes int)
	RecordRedirect(waitMinutes int)
	RecordLargeVehicleProvisioned()
	RecordLargeVehicleConcurrentUsage(count int)
	TotalCollected() int
	TotalLandfilled() int
}

// ZoneStats aggregates generation and collection for a single zone.
type ZoneStats struct {
	Generated int `yaml:"generated"`
	Collected int `yaml:"collected"`
}

// Stats is the concrete StatsRecorder, owning all aggregate counters and the
// per-zone breakdown. Each run carries a unique ID so exported reports and
// snapshots can be correlated.
type Stats struct {
	RunID string `yaml:"run_id"`

	TotalGenerated int `yaml:"total_generated"`
	Collected      int `yaml:"total_collected"`
	Landfilled     int `yaml:"total_landfilled"`

	QueueWaitTotal int `yaml:"queue_wait_total"`
	Unloads        int `yaml:"unloads"`
	Redirects      int `yaml:"redirects"`

	LargeProvisioned int `yaml:"large_provisioned"`
	PeakLargeInUse   int `yaml:"peak_large_in_use"`

	Zones map[string]*ZoneStats `yaml:"zones"`

	SimulatedMinutes int `yaml:"simulated_minutes"`
}

// NewStats builds an empty Stats with a fresh run ID.
func NewStats() *Stats {
	return &Stats{
		RunID: uuid.NewString(),
		Zones: make(map[string]*ZoneStats),
	}
}

func (s *Stats) zone(name string) *ZoneStats {
	z, ok := s.Zones[name]
	if !ok {
		z = &ZoneStats{}
		s.Zones[name] = z
	}
	return z
}

func (s *Stats) RecordCollection(zone string, kg int) {
	if kg <= 0 {
		return
	}
	s.Collected += kg
	s.zone(zone).Collected += kg
}

func (s *Stats) RecordGeneration(zone string, kg int) {
	if kg <= 0 {
		return
	}
	s.TotalGenerated += kg
	s.zone(zone).Generated += kg
}

func (s *Stats) RecordLandfillDelivery(kg int) {
	if kg <= 0 {
		return
	}
	s.Landfilled += kg
}

func (s *Stats) RecordQueueWait(minutes int) {
	s.QueueWaitTotal += minutes
	s.Unloads++
}

// RecordRedirect accounts the wait of a vehicle leaving a queue by
// redirection. The wait counts towards the average; the unload does not,
// since no cargo was transferred.
func (s *Stats) RecordRedirect(waitMinutes int) {
	s.QueueWaitTotal += waitMinutes
	s.Redirects++
}

func (s *Stats) RecordLargeVehicleProvisioned() {
	s.LargeProvisioned++
}

func (s *Stats) RecordLargeVehicleConcurrentUsage(count int) {
	s.PeakLargeInUse = max(s.PeakLargeInUse, count)
}

func (s *Stats) TotalCollected() int  { return s.Collected }
func (s *Stats) TotalLandfilled() int { return s.Landfilled }

// AverageQueueWait is the mean queue wait per queue departure (completed
// unload or redirection), in minutes.
func (s *Stats) AverageQueueWait() float64 {
	departures := s.Unloads + s.Redirects
	if departures == 0 {
		return 0
	}
	return float64(s.QueueWaitTotal) / float64(departures)
}

// Report renders the end-of-run report.
func (s *Stats) Report() string {
	var sb strings.Builder
	sb.WriteString("===== Simulation Report =====\n")
	fmt.Fprintf(&sb, "Run ID               : %s\n", s.RunID)
	fmt.Fprintf(&sb, "Simulated time       : %s (%d min)\n", FormatClock(s.SimulatedMinutes), s.SimulatedMinutes)
	fmt.Fprintf(&sb, "Waste generated      : %d kg\n", s.TotalGenerated)
	fmt.Fprintf(&sb, "Waste collected      : %d kg\n", s.Collected)
	fmt.Fprintf(&sb, "Waste landfilled     : %d kg\n", s.Landfilled)
	sb.WriteString("Per zone:\n")
	names := make([]string, 0, len(s.Zones))
	for name := range s.Zones {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		z := s.Zones[name]
		fmt.Fprintf(&sb, "  %-12s generated %7d kg, collected %7d kg\n", name, z.Generated, z.Collected)
	}
	fmt.Fprintf(&sb, "Large vehicles provisioned   : %d\n", s.LargeProvisioned)
	fmt.Fprintf(&sb, "Peak large vehicles in use   : %d\n", s.PeakLargeInUse)
	fmt.Fprintf(&sb, "Completed unloads            : %d\n", s.Unloads)
	fmt.Fprintf(&sb, "Queue redirections           : %d\n", s.Redirects)
	fmt.Fprintf(&sb, "Average queue wait           : %.1f min\n", s.AverageQueueWait())
	return sb.String()
}

// WriteReport exports the report to a file.
func (s *Stats) WriteReport(path string) error {
	if err := os.WriteFile(path, []byte(s.Report()), 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}
