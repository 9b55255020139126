// Package pipeline runs a conversion: a windower goroutine streams window
// batches into a bounded channel, a pool of workers rasterizes them, and a
// sequencer delivers the finished frames to the sink strictly in window
// order, even when workers complete out of order.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"sync"

	"evframe-go/internal/progress"
	"evframe-go/internal/raster"
	"evframe-go/internal/types"
	"evframe-go/internal/window"
)

// CollaboratorError wraps a failure of one of the external collaborators
// (decoder, frame sink, video encoder) so callers can tell which one broke.
type CollaboratorError struct {
	Name string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Name, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// FrameSink is the frame-persistence collaborator. Mirrors
// output.FrameSink; redeclared here so the pipeline depends only on the
// narrow interface it needs.
type FrameSink interface {
	WriteFrame(seq int, img *image.RGBA) error
}

type Config struct {
	Shape     types.Shape
	Events    []types.Event
	WindowDur int64
	Workers   int
	Lenient   bool
	Sink      FrameSink
	// OnProgress, when set, is called after each frame is handed to the
	// sink. Replaces the original's global progress fields.
	OnProgress progress.Func
}

type Stats struct {
	Windows       int
	Frames        int
	Events        int
	DroppedEvents uint64
}

type job struct {
	seq int // 1-based window index
	win types.Window
}

type result struct {
	seq    int
	events int
	img    *image.RGBA
}

// Run converts the whole event sequence. The first error aborts the run;
// no window is silently skipped. The caller's context is honored between
// windows.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	var opts []raster.Option
	if cfg.Lenient {
		opts = append(opts, raster.Lenient())
	}
	rast, err := raster.New(cfg.Shape, opts...)
	if err != nil {
		return Stats{}, err
	}
	wind, err := window.New(cfg.Events, cfg.WindowDur)
	if err != nil {
		return Stats{}, err
	}
	if cfg.Sink == nil {
		return Stats{}, fmt.Errorf("%w: nil frame sink", types.ErrInvalidConfig)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failOnce sync.Once
	var firstErr error
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan job, workers*2)
	results := make(chan result, workers*2)

	go func() {
		defer close(jobs)
		seq := 0
		for {
			win, ok := wind.Next()
			if !ok {
				return
			}
			seq++
			select {
			case <-ctx.Done():
				fail(ctx.Err())
				return
			case jobs <- job{seq: seq, win: win}:
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				img, err := rast.Rasterize(j.win.Events)
				if err != nil {
					fail(err)
					return
				}
				select {
				case <-ctx.Done():
					return
				case results <- result{seq: j.seq, events: len(j.win.Events), img: img}:
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	pending := make(map[int]result)
	next := 1
	for res := range results {
		pending[res.seq] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := cfg.Sink.WriteFrame(r.seq, r.img); err != nil {
				fail(&CollaboratorError{Name: "frame sink", Err: err})
				break
			}
			stats.Frames++
			stats.Events += r.events
			stats.Windows++
			next++
			if cfg.OnProgress != nil {
				cfg.OnProgress(progress.Report{
					EventsDone:  stats.Events,
					EventsTotal: len(cfg.Events),
					Frames:      stats.Frames,
				})
			}
		}
	}

	stats.DroppedEvents = rast.Dropped()
	if firstErr != nil {
		return stats, firstErr
	}
	return stats, nil
}
