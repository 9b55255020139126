package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// FrameSink persists rasterized frames. Frames arrive strictly in window
// order with 1-based sequence numbers.
type FrameSink interface {
	WriteFrame(seq int, img *image.RGBA) error
	Close() error
}

// PNGDirSink writes numbered PNG files (frame_1.png, frame_2.png, ...) into
// a directory, the layout the ffmpeg encoder consumes. When constructed
// without an explicit directory it creates a scratch dir and removes it
// again in Cleanup.
type PNGDirSink struct {
	dir     string
	scratch bool
}

func NewPNGDir(dir string) (*PNGDirSink, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		return &PNGDirSink{dir: dir}, nil
	}
	tmp, err := os.MkdirTemp("", "evframe-*")
	if err != nil {
		return nil, err
	}
	return &PNGDirSink{dir: tmp, scratch: true}, nil
}

func (s *PNGDirSink) WriteFrame(seq int, img *image.RGBA) error {
	return imaging.Save(img, filepath.Join(s.dir, fmt.Sprintf("frame_%d.png", seq)))
}

func (s *PNGDirSink) Close() error {
	return nil
}

// Pattern returns the printf-style frame path pattern for the encoder.
func (s *PNGDirSink) Pattern() string {
	return filepath.Join(s.dir, "frame_%d.png")
}

func (s *PNGDirSink) Dir() string {
	return s.dir
}

// Cleanup removes the scratch directory, if this sink owns one. Safe to
// call on every exit path.
func (s *PNGDirSink) Cleanup() {
	if s.scratch {
		_ = os.RemoveAll(s.dir)
	}
}
