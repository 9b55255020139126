package raster

import (
	"fmt"
	"image"
	"sync/atomic"

	"evframe-go/internal/types"
)

// Rasterizer turns one window's events into an RGBA frame. Positive
// polarity paints the pixel pure green, negative polarity pure red. When
// several events in one window hit the same pixel, the last one wins; there
// is no blending or counting. A Rasterizer is safe for concurrent use.
type Rasterizer struct {
	shape   types.Shape
	lenient bool
	dropped atomic.Uint64
}

type Option func(*Rasterizer)

// Lenient makes out-of-bounds events non-fatal: they are dropped and
// counted instead of aborting the run.
func Lenient() Option {
	return func(r *Rasterizer) { r.lenient = true }
}

func New(shape types.Shape, opts ...Option) (*Rasterizer, error) {
	if shape.Width <= 0 || shape.Height <= 0 {
		return nil, fmt.Errorf("%w: sensor shape %dx%d", types.ErrInvalidConfig, shape.Width, shape.Height)
	}
	r := &Rasterizer{shape: shape}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rasterize renders the given events onto a fresh opaque black canvas of
// the configured shape. In strict mode (the default) the first event
// outside the sensor bounds aborts with types.ErrOutOfBounds and no frame
// is returned; in lenient mode such events are skipped and counted.
func (r *Rasterizer) Rasterize(events []types.Event) (*image.RGBA, error) {
	img := newCanvas(r.shape)
	for _, ev := range events {
		if int(ev.X) >= r.shape.Width || int(ev.Y) >= r.shape.Height {
			if r.lenient {
				r.dropped.Add(1)
				continue
			}
			return nil, fmt.Errorf("%w: event at (%d,%d), sensor is %dx%d",
				types.ErrOutOfBounds, ev.X, ev.Y, r.shape.Width, r.shape.Height)
		}
		i := img.PixOffset(int(ev.X), int(ev.Y))
		if ev.P == 1 {
			img.Pix[i] = 0
			img.Pix[i+1] = 255
		} else {
			img.Pix[i] = 255
			img.Pix[i+1] = 0
		}
		img.Pix[i+2] = 0
	}
	return img, nil
}

// Dropped reports how many events lenient mode has skipped so far.
func (r *Rasterizer) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Rasterizer) Shape() types.Shape {
	return r.shape
}

func newCanvas(shape types.Shape) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, shape.Width, shape.Height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}
