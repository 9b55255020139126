package progress

import (
	"testing"
	"time"
)

func TestPercent(t *testing.T) {
	r := Report{EventsDone: 250, EventsTotal: 1000}
	if got := r.Percent(); got != 25 {
		t.Fatalf("Percent() = %.2f, want 25", got)
	}
	if got := (Report{}).Percent(); got != 100 {
		t.Fatalf("empty run Percent() = %.2f, want 100", got)
	}
}

func TestETABeforeFirstEvent(t *testing.T) {
	tr := NewTracker(1000)
	if got := tr.ETA(0); got != "-" {
		t.Fatalf("ETA(0) = %q, want \"-\"", got)
	}
}

func TestETAAssumesUniformEventCost(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := &Tracker{
		total: 1000,
		start: start,
		now:   func() time.Time { return start.Add(10 * time.Second) },
	}
	// 250 events in 10s leaves 750 events, 30s at the same rate.
	if got := tr.ETA(250); got != "0:00:30" {
		t.Fatalf("ETA(250) = %q, want 0:00:30", got)
	}
}

func TestFormatHMS(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{59 * time.Second, "0:00:59"},
		{90 * time.Minute, "1:30:00"},
		{25*time.Hour + 5*time.Second, "25:00:05"},
		{-time.Second, "0:00:00"},
	}
	for _, tc := range cases {
		if got := formatHMS(tc.d); got != tc.want {
			t.Fatalf("formatHMS(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
