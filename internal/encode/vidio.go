package encode

import (
	"fmt"
	"image"

	vidio "github.com/AlexEidt/Vidio"

	"evframe-go/internal/types"
)

// VidioSink streams RGBA frames straight into a video writer, skipping the
// intermediate PNG directory. It satisfies output.FrameSink; the pipeline's
// sequencer guarantees frames arrive in window order, which is all a
// streaming encoder needs.
type VidioSink struct {
	w     *vidio.VideoWriter
	shape types.Shape
}

func NewVidioSink(path string, shape types.Shape, fps int) (*VidioSink, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps %d", types.ErrInvalidConfig, fps)
	}
	if shape.Width <= 0 || shape.Height <= 0 {
		return nil, fmt.Errorf("%w: sensor shape %dx%d", types.ErrInvalidConfig, shape.Width, shape.Height)
	}
	w, err := vidio.NewVideoWriter(path, shape.Width, shape.Height, &vidio.Options{FPS: float64(fps)})
	if err != nil {
		return nil, fmt.Errorf("open video writer: %w", err)
	}
	return &VidioSink{w: w, shape: shape}, nil
}

func (s *VidioSink) WriteFrame(_ int, img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != s.shape.Width || b.Dy() != s.shape.Height {
		return fmt.Errorf("frame is %dx%d, writer expects %dx%d", b.Dx(), b.Dy(), s.shape.Width, s.shape.Height)
	}
	return s.w.Write(img.Pix)
}

func (s *VidioSink) Close() error {
	s.w.Close()
	return nil
}
