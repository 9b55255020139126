package window

import (
	"fmt"

	"evframe-go/internal/types"
)

// DurationForFPS converts a requested frame rate into a window duration in
// microseconds. Integer division is deliberate: the historical converter
// used 1_000_000 // fps, so 30 fps yields 33333µs windows rather than
// 33333.3µs, and the output keeps that quantization for compatibility.
func DurationForFPS(fps int) (int64, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("%w: fps must be positive, got %d", types.ErrInvalidConfig, fps)
	}
	dur := int64(1_000_000 / fps)
	if dur == 0 {
		return 0, fmt.Errorf("%w: fps %d exceeds 1MHz event clock", types.ErrInvalidConfig, fps)
	}
	return dur, nil
}

// Windower partitions a timestamp-ordered event slice into consecutive,
// non-overlapping windows of a fixed duration. The first window starts at
// the first event's timestamp; every window after that starts where the
// previous one ended, so interior windows with no events are still emitted.
// Iteration stops once the window holding the final event has been emitted.
//
// Ordering of the input is an assumed precondition. The decode layer
// validates it at load time; the iterator itself does not re-check and will
// misassign events if the caller hands it an unsorted slice.
type Windower struct {
	events []types.Event
	dur    int64
	start  int64
	cur    int
}

func New(events []types.Event, dur int64) (*Windower, error) {
	if dur <= 0 {
		return nil, fmt.Errorf("%w: window duration must be positive, got %dµs", types.ErrInvalidConfig, dur)
	}
	w := &Windower{events: events, dur: dur}
	if len(events) > 0 {
		w.start = events[0].T
	}
	return w, nil
}

// Next returns the next window and true, or a zero Window and false once
// every event has been assigned. Each event is visited exactly once across
// the whole iteration.
func (w *Windower) Next() (types.Window, bool) {
	if w.cur >= len(w.events) {
		return types.Window{}, false
	}
	end := w.start + w.dur
	lo := w.cur
	for w.cur < len(w.events) && w.events[w.cur].T < end {
		w.cur++
	}
	win := types.Window{Start: w.start, Events: w.events[lo:w.cur]}
	w.start = end
	return win, true
}

// Streamer is the incremental counterpart of Windower for live ingest,
// where the event sequence arrives in batches and its end is unknown. A
// window is considered complete as soon as an event at or past its end
// boundary arrives.
type Streamer struct {
	dur     int64
	start   int64
	started bool
	pending []types.Event
}

func NewStreamer(dur int64) (*Streamer, error) {
	if dur <= 0 {
		return nil, fmt.Errorf("%w: window duration must be positive, got %dµs", types.ErrInvalidConfig, dur)
	}
	return &Streamer{dur: dur}, nil
}

// Feed appends a batch of events and returns the windows completed by it,
// in order. Empty windows between the previous event and the new one are
// emitted just as the batch Windower does.
func (s *Streamer) Feed(events []types.Event) []types.Window {
	var done []types.Window
	for _, ev := range events {
		if !s.started {
			s.start = ev.T
			s.started = true
		}
		for ev.T >= s.start+s.dur {
			done = append(done, types.Window{Start: s.start, Events: s.pending})
			s.pending = nil
			s.start += s.dur
		}
		s.pending = append(s.pending, ev)
	}
	return done
}

// Flush emits the trailing partial window, if any. The Streamer must not be
// fed again afterwards.
func (s *Streamer) Flush() (types.Window, bool) {
	if !s.started || len(s.pending) == 0 {
		return types.Window{}, false
	}
	win := types.Window{Start: s.start, Events: s.pending}
	s.pending = nil
	return win, true
}
