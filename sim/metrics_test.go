package sim

import (
	"strings"
	"testing"
)

func TestStats_Aggregation(t *testing.T) {
	// GIVEN a stats sink receiving a morning's worth of events
	st := NewStats()
	st.RecordGeneration("Norte", 5000)
	st.RecordGeneration("Sul", 3000)
	st.RecordCollection("Norte", 2000)
	st.RecordCollection("Norte", 1000)
	st.RecordLandfillDelivery(2500)
	st.RecordQueueWait(10)
	st.RecordQueueWait(20)
	st.RecordLargeVehicleProvisioned()
	st.RecordLargeVehicleConcurrentUsage(2)
	st.RecordLargeVehicleConcurrentUsage(1)

	// THEN totals, per-zone breakdowns and the peak gauge all hold
	if st.TotalGenerated != 8000 {
		t.Errorf("generated: got %d, want 8000", st.TotalGenerated)
	}
	if st.TotalCollected() != 3000 {
		t.Errorf("collected: got %d, want 3000", st.TotalCollected())
	}
	if st.TotalLandfilled() != 2500 {
		t.Errorf("landfilled: got %d, want 2500", st.TotalLandfilled())
	}
	if z := st.Zones["Norte"]; z.Generated != 5000 || z.Collected != 3000 {
		t.Errorf("Norte: generated %d collected %d, want 5000/3000", z.Generated, z.Collected)
	}
	if got := st.AverageQueueWait(); got != 15.0 {
		t.Errorf("average queue wait: got %.1f, want 15.0", got)
	}
	if st.PeakLargeInUse != 2 {
		t.Errorf("peak large in use: got %d, want 2 (the maximum, not the last)", st.PeakLargeInUse)
	}
	if st.LargeProvisioned != 1 {
		t.Errorf("provisioned: got %d, want 1", st.LargeProvisioned)
	}
}

func TestStats_IgnoresNonPositiveAmounts(t *testing.T) {
	st := NewStats()
	st.RecordGeneration("Norte", 0)
	st.RecordCollection("Norte", -5)
	st.RecordLandfillDelivery(0)
	if st.TotalGenerated != 0 || st.TotalCollected() != 0 || st.TotalLandfilled() != 0 {
		t.Errorf("non-positive amounts counted: gen=%d col=%d land=%d",
			st.TotalGenerated, st.TotalCollected(), st.TotalLandfilled())
	}
}

func TestStats_AverageQueueWait_NoUnloads(t *testing.T) {
	st := NewStats()
	if got := st.AverageQueueWait(); got != 0 {
		t.Errorf("average with no unloads: got %.1f, want 0", got)
	}
}

func TestStats_Redirect_DoesNotCountAsUnload(t *testing.T) {
	// GIVEN one completed unload and one redirection
	st := NewStats()
	st.RecordQueueWait(10)
	st.RecordRedirect(50)

	// THEN the unload counter stays untouched by the redirect
	if st.Unloads != 1 {
		t.Errorf("unloads: got %d, want 1", st.Unloads)
	}
	if st.Redirects != 1 {
		t.Errorf("redirects: got %d, want 1", st.Redirects)
	}
	// AND both waits feed the average over all queue departures
	if got := st.AverageQueueWait(); got != 30.0 {
		t.Errorf("average queue wait: got %.1f, want 30.0", got)
	}
}

func TestStats_Report_NamesEveryZone(t *testing.T) {
	st := NewStats()
	st.RecordGeneration("Sul", 100)
	st.RecordGeneration("Norte", 200)
	st.SimulatedMinutes = 90

	out := st.Report()
	for _, want := range []string{st.RunID, "Norte", "Sul", "day1 01:30"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestStats_FreshRunIDs(t *testing.T) {
	if NewStats().RunID == NewStats().RunID {
		t.Error("two runs share a run ID")
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		tick int
		want string
	}{
		{0, "day1 00:00"},
		{90, "day1 01:30"},
		{MinutesPerDay, "day2 00:00"},
		{MinutesPerDay + 13*60 + 7, "day2 13:07"},
	}
	for _, c := range cases {
		if got := FormatClock(c.tick); got != c.want {
			t.Errorf("FormatClock(%d): got %q, want %q", c.tick, got, c.want)
		}
	}
}
