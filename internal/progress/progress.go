package progress

import (
	"fmt"
	"time"
)

// Report is one progress observation for a running conversion.
type Report struct {
	EventsDone  int
	EventsTotal int
	Frames      int
}

func (r Report) Percent() float64 {
	if r.EventsTotal == 0 {
		return 100
	}
	return float64(r.EventsDone) * 100 / float64(r.EventsTotal)
}

// Func receives progress reports. Passed into the pipeline by the caller;
// there is no global progress state.
type Func func(Report)

// Tracker derives an ETA from elapsed wall time, assuming every event costs
// the same to process.
type Tracker struct {
	total int
	start time.Time
	now   func() time.Time
}

func NewTracker(total int) *Tracker {
	return &Tracker{total: total, start: time.Now(), now: time.Now}
}

// ETA returns the estimated time remaining in H:MM:SS form, or "-" before
// any event has been processed.
func (t *Tracker) ETA(done int) string {
	if done <= 0 || t.total <= 0 {
		return "-"
	}
	elapsed := t.now().Sub(t.start)
	remaining := time.Duration(float64(elapsed) * float64(t.total-done) / float64(done))
	return formatHMS(remaining)
}

func formatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
