// evframe-live renders an AER event stream to frames in real time and
// broadcasts them to websocket clients. Events arrive as CBOR batches on a
// ZeroMQ PULL socket; without a camera, -debug runs a built-in simulator.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/disintegration/imaging"

	"evframe-go/internal/config"
	"evframe-go/internal/ingest"
	"evframe-go/internal/output"
	"evframe-go/internal/raster"
	"evframe-go/internal/server"
	"evframe-go/internal/simulator"
	"evframe-go/internal/types"
	"evframe-go/internal/window"
	"evframe-go/internal/wire"
)

type metrics struct {
	batches         atomic.Uint64
	events          atomic.Uint64
	eventsDropped   atomic.Uint64
	windowsDone     atomic.Uint64
	framesRendered  atomic.Uint64
	framesBroadcast atomic.Uint64
	batchesSkipped  atomic.Uint64
}

func (m *metrics) snapshot() map[string]any {
	return map[string]any{
		"batches_total":          m.batches.Load(),
		"events_total":           m.events.Load(),
		"events_dropped_total":   m.eventsDropped.Load(),
		"windows_total":          m.windowsDone.Load(),
		"frames_rendered_total":  m.framesRendered.Load(),
		"frames_broadcast_total": m.framesBroadcast.Load(),
		"batches_skipped_total":  m.batchesSkipped.Load(),
		"ingest_decode_failures": ingest.DecodeFailures(),
	}
}

func main() {
	var cfg config.AppConfig
	flag.IntVar(&cfg.Port, "port", 8888, "HTTP port for the live viewer")
	flag.StringVar(&cfg.Endpoint, "endpoint", "tcp://localhost:31001", "ZMQ endpoint of the event feed")
	flag.IntVar(&cfg.Width, "width", 346, "Sensor width in pixels")
	flag.IntVar(&cfg.Height, "height", 260, "Sensor height in pixels")
	flag.IntVar(&cfg.FPS, "fps", 25, "Preview frame rate")
	flag.BoolVar(&cfg.Lenient, "lenient", true, "Drop out-of-bounds events instead of stopping the stream")
	flag.BoolVar(&cfg.Debug, "debug", false, "Run with simulated events")
	flag.Float64Var(&cfg.DebugEventRate, "debug-event-rate", 50000, "Simulated event rate (events/sec)")
	flag.BoolVar(&cfg.RawLogEnabled, "raw-log", false, "Record raw ingest payloads to disk")
	flag.StringVar(&cfg.RawLogDir, "raw-log-dir", "rawlog", "Directory for raw ingest logs")
	flag.IntVar(&cfg.IngestLogEvery, "ingest-log-every", 100, "Log every Nth ingest error")
	flag.BoolVar(&cfg.IngestFallback, "ingest-fallback", true, "Fall back to the simulator when ingest fails")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shape := types.Shape{Width: cfg.Width, Height: cfg.Height}
	dur, err := window.DurationForFPS(cfg.FPS)
	if err != nil {
		log.Fatalf("%v", err)
	}
	var opts []raster.Option
	if cfg.Lenient {
		opts = append(opts, raster.Lenient())
	}
	rast, err := raster.New(shape, opts...)
	if err != nil {
		log.Fatalf("%v", err)
	}
	streamer, err := window.NewStreamer(dur)
	if err != nil {
		log.Fatalf("%v", err)
	}

	source := "stream"
	var messages <-chan wire.Message
	if cfg.Debug {
		source = "simulator"
		messages = simulator.Stream(ctx, shape, cfg.DebugEventRate)
	} else {
		var recorder ingest.RawRecorder
		if cfg.RawLogEnabled {
			writer, err := output.NewRawLogWriter(cfg.RawLogDir, "raw_events")
			if err != nil {
				log.Fatalf("failed to start raw log: %v", err)
			}
			recorder = writer
			go func() {
				<-ctx.Done()
				if err := writer.Close(); err != nil {
					log.Printf("raw log close failed: %v", err)
				}
			}()
		}
		ch, err := ingest.Stream(ctx, cfg.Endpoint, cfg.IngestLogEvery, recorder)
		if err != nil {
			if !cfg.IngestFallback {
				log.Fatalf("failed to start ingest: %v", err)
			}
			log.Printf("failed to start ingest: %v; falling back to simulator", err)
			source = "simulator"
			messages = simulator.Stream(ctx, shape, cfg.DebugEventRate)
		} else {
			messages = ch
		}
	}

	var m metrics
	var lastFrame atomic.Value
	lastFrame.Store("")
	uiMessages := make(chan any, 16)

	go func() {
		defer close(uiMessages)
		var lastT int64
		for msg := range messages {
			if msg.Type != wire.TypeEvents {
				continue
			}
			m.batches.Add(1)
			events, err := msg.Events()
			if err != nil {
				m.batchesSkipped.Add(1)
				continue
			}
			// A live feed cannot be rejected; out-of-order batches are
			// dropped so the windower's precondition holds.
			if len(events) > 0 && events[0].T < lastT {
				m.batchesSkipped.Add(1)
				continue
			}
			if n := len(events); n > 0 {
				lastT = events[n-1].T
				m.events.Add(uint64(n))
			}

			for _, win := range streamer.Feed(events) {
				m.windowsDone.Add(1)
				img, err := rast.Rasterize(win.Events)
				if err != nil {
					log.Printf("rasterize window at %dµs: %v", win.Start, err)
					continue
				}
				m.framesRendered.Add(1)
				m.eventsDropped.Store(rast.Dropped())
				lastFrame.Store(time.Now().Format(time.RFC3339))

				var buf bytes.Buffer
				if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
					log.Printf("png encode: %v", err)
					continue
				}
				select {
				case uiMessages <- server.Frame(buf.Bytes()):
					m.framesBroadcast.Add(1)
				default:
					// Viewers lagging behind drop frames, the stream
					// itself never blocks on them.
				}
			}
		}
	}()

	statusFn := func() map[string]any {
		return map[string]any{
			"source":     source,
			"last_frame": lastFrame.Load(),
			"metrics":    m.snapshot(),
		}
	}
	configFn := func() map[string]any {
		return map[string]any{
			"type":     "config",
			"width":    cfg.Width,
			"height":   cfg.Height,
			"fps":      cfg.FPS,
			"endpoint": cfg.Endpoint,
			"port":     cfg.Port,
		}
	}

	log.Printf("live viewer at http://localhost:%d (source: %s)", cfg.Port, source)
	if err := server.Run(ctx, cfg, uiMessages, statusFn, configFn); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
