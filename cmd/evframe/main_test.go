package main

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"evframe-go/internal/pipeline"
	"evframe-go/internal/types"
)

type fakeStreamSink struct {
	frames int
	closed bool
}

func (s *fakeStreamSink) WriteFrame(int, *image.RGBA) error {
	s.frames++
	return nil
}

func (s *fakeStreamSink) Close() error {
	s.closed = true
	return nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		t.Fatalf("create output file: %v", err)
	}
}

func TestStreamToRemovesOutputOnFailedRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp4")
	touch(t, out)

	sink := &fakeStreamSink{}
	err := streamTo(context.Background(), pipeline.Config{
		Shape:     types.Shape{Width: 2, Height: 2},
		Events:    []types.Event{{X: 9, Y: 9, T: 0, P: 1}},
		WindowDur: 1000,
	}, sink, out)
	if !errors.Is(err, types.ErrOutOfBounds) {
		t.Fatalf("want ErrOutOfBounds, got %v", err)
	}
	if !sink.closed {
		t.Fatal("sink left open after failed run")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("partial output still present after failed run: %v", statErr)
	}
}

func TestStreamToKeepsOutputOnSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp4")
	touch(t, out)

	sink := &fakeStreamSink{}
	err := streamTo(context.Background(), pipeline.Config{
		Shape:     types.Shape{Width: 2, Height: 2},
		Events:    []types.Event{{X: 0, Y: 0, T: 0, P: 1}},
		WindowDur: 1000,
	}, sink, out)
	if err != nil {
		t.Fatalf("streamTo error: %v", err)
	}
	if sink.frames != 1 {
		t.Fatalf("sink received %d frames, want 1", sink.frames)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Fatalf("output missing after successful run: %v", statErr)
	}
}
