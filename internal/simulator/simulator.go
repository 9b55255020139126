package simulator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"evframe-go/internal/types"
	"evframe-go/internal/wire"
)

// Generate produces a synthetic AER sequence: a bright dot orbiting the
// sensor center, one orbit per second of simulated time. The leading edge
// of the dot fires positive events, the trailing edge negative ones, which
// is roughly what a real event camera sees for a moving light. Events come
// out in timestamp order.
func Generate(shape types.Shape, duration time.Duration, eventsPerSec float64) []types.Event {
	if shape.Width < 2 || shape.Height < 2 || eventsPerSec <= 0 || duration <= 0 {
		return nil
	}
	total := int(duration.Seconds() * eventsPerSec)
	if total < 1 {
		return nil
	}
	step := duration.Microseconds() / int64(total)
	if step < 1 {
		step = 1
	}

	events := make([]types.Event, 0, total)
	var t int64
	for i := 0; i < total; i++ {
		events = append(events, eventAt(shape, t, i%2 == 0))
		t += step
	}
	return events
}

func eventAt(shape types.Shape, t int64, lead bool) types.Event {
	cx := float64(shape.Width) / 2
	cy := float64(shape.Height) / 2
	radius := math.Min(cx, cy) * 0.7

	angle := 2 * math.Pi * float64(t) / 1e6
	if !lead {
		angle -= 0.3 // trailing edge lags the dot
	}
	r := radius * (1 - rand.Float64()*0.2)
	ev := types.Event{
		X: clampCoord(cx+r*math.Cos(angle), shape.Width),
		Y: clampCoord(cy+r*math.Sin(angle), shape.Height),
		T: t,
	}
	if lead {
		ev.P = 1
	}
	return ev
}

func clampCoord(v float64, bound int) uint16 {
	i := int(v)
	if i < 0 {
		i = 0
	}
	if i >= bound {
		i = bound - 1
	}
	return uint16(i)
}

// Stream emits wire event batches at roughly the requested event rate, for
// running the live viewer without a camera. Timestamps follow the wall
// clock so windowing behaves as it would on real hardware.
func Stream(ctx context.Context, shape types.Shape, eventsPerSec float64) <-chan wire.Message {
	out := make(chan wire.Message)
	go func() {
		defer close(out)

		const batchInterval = 20 * time.Millisecond
		perBatch := int(eventsPerSec * batchInterval.Seconds())
		if perBatch < 1 {
			perBatch = 1
		}

		ticker := time.NewTicker(batchInterval)
		defer ticker.Stop()

		start := time.Now()
		var last int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Since(start).Microseconds()
				step := (now - last) / int64(perBatch)
				if step < 1 {
					step = 1
				}
				batch := make([]types.Event, 0, perBatch)
				for i := 0; i < perBatch; i++ {
					batch = append(batch, eventAt(shape, last+int64(i)*step, i%2 == 0))
				}
				last = now
				select {
				case <-ctx.Done():
					return
				case out <- wire.BatchOf(batch):
				}
			}
		}
	}()
	return out
}
