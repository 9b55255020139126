// evframe converts an AER event capture into a frame-based video. Events
// are grouped into fixed-duration windows derived from the requested frame
// rate, each window is rasterized into an image (positive polarity green,
// negative red), and the images are assembled into a video.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"evframe-go/internal/decode"
	"evframe-go/internal/encode"
	"evframe-go/internal/output"
	"evframe-go/internal/pipeline"
	"evframe-go/internal/progress"
	"evframe-go/internal/window"
)

type options struct {
	input      string
	output     string
	fps        int
	workers    int
	sink       string
	lenient    bool
	keepFrames string
	logEvery   int
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "", "Path to the event capture (.evc, .cbor or .csv)")
	flag.StringVar(&opts.output, "output", "out.mp4", "Path for the output video")
	flag.IntVar(&opts.fps, "fps", 25, "Frame rate of the output video")
	flag.IntVar(&opts.workers, "workers", runtime.NumCPU(), "Number of rasterization workers")
	flag.StringVar(&opts.sink, "sink", "png", "Frame delivery: 'png' (scratch dir + one ffmpeg run) or 'stream' (direct video writer)")
	flag.BoolVar(&opts.lenient, "lenient", false, "Drop out-of-bounds events with a warning instead of failing the run")
	flag.StringVar(&opts.keepFrames, "keep-frames", "", "Write PNG frames to this directory and keep them (png sink only)")
	flag.IntVar(&opts.logEvery, "log-every", 25, "Log progress every Nth frame")
	flag.Parse()

	if opts.input == "" {
		log.Fatal("missing -input")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := convert(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
}

func convert(ctx context.Context, opts options) error {
	log.Printf("loading events from %s ...", opts.input)
	shape, events, err := decode.File(opts.input)
	if err != nil {
		return &pipeline.CollaboratorError{Name: "decoder", Err: err}
	}
	log.Printf("loaded %d events, sensor %dx%d", len(events), shape.Width, shape.Height)

	dur, err := window.DurationForFPS(opts.fps)
	if err != nil {
		return err
	}

	cfg := pipeline.Config{
		Shape:     shape,
		Events:    events,
		WindowDur: dur,
		Workers:   opts.workers,
		Lenient:   opts.lenient,
	}
	tracker := progress.NewTracker(len(events))
	if opts.logEvery > 0 {
		cfg.OnProgress = func(r progress.Report) {
			if r.Frames%opts.logEvery == 0 {
				log.Printf("generated frame %d (%d/%d events, %.2f%%, eta %s)",
					r.Frames, r.EventsDone, r.EventsTotal, r.Percent(), tracker.ETA(r.EventsDone))
			}
		}
	}

	switch opts.sink {
	case "stream":
		return convertStreaming(ctx, cfg, opts)
	case "png":
		return convertPNG(ctx, cfg, opts)
	default:
		return fmt.Errorf("unknown sink %q", opts.sink)
	}
}

// convertPNG is the historical shape of the run: numbered PNGs in a
// scratch directory, then a single ffmpeg invocation over them. The
// scratch dir is removed on every exit path.
func convertPNG(ctx context.Context, cfg pipeline.Config, opts options) error {
	sink, err := output.NewPNGDir(opts.keepFrames)
	if err != nil {
		return &pipeline.CollaboratorError{Name: "frame sink", Err: err}
	}
	defer sink.Cleanup()
	cfg.Sink = sink

	stats, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	logStats(stats)
	if stats.Frames == 0 {
		log.Printf("empty event sequence, nothing to encode")
		return nil
	}

	if err := (encode.FFmpeg{}).Encode(ctx, sink.Pattern(), opts.fps, opts.output); err != nil {
		return &pipeline.CollaboratorError{Name: "video encoder", Err: err}
	}
	log.Printf("wrote %s", opts.output)
	return nil
}

func convertStreaming(ctx context.Context, cfg pipeline.Config, opts options) error {
	sink, err := encode.NewVidioSink(opts.output, cfg.Shape, opts.fps)
	if err != nil {
		return &pipeline.CollaboratorError{Name: "video encoder", Err: err}
	}
	return streamTo(ctx, cfg, sink, opts.output)
}

type streamSink interface {
	pipeline.FrameSink
	Close() error
}

// streamTo runs the pipeline into a streaming sink. A failed run must not
// leave a partially written video behind, so the output path is removed on
// every error exit.
func streamTo(ctx context.Context, cfg pipeline.Config, sink streamSink, outPath string) error {
	cfg.Sink = sink

	stats, err := pipeline.Run(ctx, cfg)
	closeErr := sink.Close()
	if err != nil {
		_ = os.Remove(outPath)
		return err
	}
	if closeErr != nil {
		_ = os.Remove(outPath)
		return &pipeline.CollaboratorError{Name: "video encoder", Err: closeErr}
	}
	logStats(stats)
	if stats.Frames > 0 {
		log.Printf("wrote %s", outPath)
	}
	return nil
}

func logStats(stats pipeline.Stats) {
	if stats.DroppedEvents > 0 {
		log.Printf("warning: dropped %d out-of-bounds events", stats.DroppedEvents)
	}
	log.Printf("%d frames generated in total", stats.Frames)
}
