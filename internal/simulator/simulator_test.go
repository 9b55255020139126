package simulator

import (
	"testing"
	"time"

	"evframe-go/internal/types"
)

func TestGenerateStaysInBoundsAndOrdered(t *testing.T) {
	shape := types.Shape{Width: 64, Height: 48}
	events := Generate(shape, 2*time.Second, 10000)
	if len(events) == 0 {
		t.Fatal("no events generated")
	}

	var positives int
	for i, ev := range events {
		if int(ev.X) >= shape.Width || int(ev.Y) >= shape.Height {
			t.Fatalf("event %d at (%d,%d) outside %dx%d", i, ev.X, ev.Y, shape.Width, shape.Height)
		}
		if ev.P > 1 {
			t.Fatalf("event %d polarity %d", i, ev.P)
		}
		if i > 0 && ev.T < events[i-1].T {
			t.Fatalf("event %d at t=%d after t=%d", i, ev.T, events[i-1].T)
		}
		if ev.P == 1 {
			positives++
		}
	}
	// Both polarities must occur; the dot has a leading and trailing edge.
	if positives == 0 || positives == len(events) {
		t.Fatalf("%d of %d events positive, want a mix", positives, len(events))
	}
}

func TestGenerateRejectsDegenerateInput(t *testing.T) {
	if got := Generate(types.Shape{Width: 1, Height: 1}, time.Second, 100); got != nil {
		t.Fatalf("degenerate shape produced %d events", len(got))
	}
	if got := Generate(types.Shape{Width: 64, Height: 48}, 0, 100); got != nil {
		t.Fatalf("zero duration produced %d events", len(got))
	}
	if got := Generate(types.Shape{Width: 64, Height: 48}, time.Second, 0); got != nil {
		t.Fatalf("zero rate produced %d events", len(got))
	}
}
