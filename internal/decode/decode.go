// Package decode loads event captures from disk. Two formats are
// supported, picked by file extension:
//
//   - .evc / .cbor: the CBOR wire stream (see internal/wire)
//   - .csv: a header line "width,height" followed by one "x,y,t,p" row per
//     event, timestamps in microseconds
//
// Both loaders validate that timestamps are non-decreasing and reject the
// file otherwise; the windowing core trusts its input and has no way to
// re-sort.
package decode

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"evframe-go/internal/types"
	"evframe-go/internal/wire"
)

// File loads a capture, returning the sensor shape and the full event
// sequence in timestamp order.
func File(path string) (types.Shape, []types.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Shape{}, nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".evc", ".cbor":
		return Capture(f)
	case ".csv":
		return CSV(f)
	default:
		return types.Shape{}, nil, fmt.Errorf("unsupported capture format %q", filepath.Ext(path))
	}
}

// Capture reads a CBOR wire stream: one start message, then event batches
// until end-of-stream or an end message.
func Capture(r io.Reader) (types.Shape, []types.Event, error) {
	wr := wire.NewReader(r)

	first, err := wr.Next()
	if err == io.EOF {
		return types.Shape{}, nil, fmt.Errorf("empty capture stream")
	}
	if err != nil {
		return types.Shape{}, nil, err
	}
	shape, err := first.Shape()
	if err != nil {
		return types.Shape{}, nil, err
	}

	var events []types.Event
	for {
		msg, err := wr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.Shape{}, nil, err
		}
		switch msg.Type {
		case wire.TypeEnd:
			return shape, events, checkOrdered(events)
		case wire.TypeEvents:
			batch, err := msg.Events()
			if err != nil {
				return types.Shape{}, nil, err
			}
			events = append(events, batch...)
		default:
			return types.Shape{}, nil, fmt.Errorf("unexpected %q message mid-stream", msg.Type)
		}
	}
	return shape, events, checkOrdered(events)
}

// CSV reads the plain-text interchange format. The header row holds the
// sensor shape; every following row is one event.
func CSV(r io.Reader) (types.Shape, []types.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return types.Shape{}, nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != 2 {
		return types.Shape{}, nil, fmt.Errorf("csv header wants 2 fields (width,height), got %d", len(header))
	}
	width, err := strconv.Atoi(strings.TrimSpace(header[0]))
	if err != nil {
		return types.Shape{}, nil, fmt.Errorf("csv width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(header[1]))
	if err != nil {
		return types.Shape{}, nil, fmt.Errorf("csv height: %w", err)
	}
	if width <= 0 || height <= 0 {
		return types.Shape{}, nil, fmt.Errorf("%w: sensor shape %dx%d", types.ErrInvalidConfig, width, height)
	}

	var events []types.Event
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.Shape{}, nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		ev, err := parseRow(row)
		if err != nil {
			return types.Shape{}, nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	return types.Shape{Width: width, Height: height}, events, checkOrdered(events)
}

func parseRow(row []string) (types.Event, error) {
	if len(row) != 4 {
		return types.Event{}, fmt.Errorf("want 4 fields (x,y,t,p), got %d", len(row))
	}
	x, err := parseCoord(row[0])
	if err != nil {
		return types.Event{}, fmt.Errorf("x: %w", err)
	}
	y, err := parseCoord(row[1])
	if err != nil {
		return types.Event{}, fmt.Errorf("y: %w", err)
	}
	t, err := strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64)
	if err != nil {
		return types.Event{}, fmt.Errorf("t: %w", err)
	}
	p, err := strconv.ParseUint(strings.TrimSpace(row[3]), 10, 8)
	if err != nil {
		return types.Event{}, fmt.Errorf("p: %w", err)
	}
	if p > 1 {
		return types.Event{}, fmt.Errorf("polarity %d, want 0 or 1", p)
	}
	return types.Event{X: x, Y: y, T: t, P: uint8(p)}, nil
}

func parseCoord(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("coordinate %d exceeds sensor address space", v)
	}
	return uint16(v), nil
}

func checkOrdered(events []types.Event) error {
	for i := 1; i < len(events); i++ {
		if events[i].T < events[i-1].T {
			return fmt.Errorf("%w: event %d at t=%dµs after t=%dµs",
				types.ErrUnordered, i, events[i].T, events[i-1].T)
		}
	}
	return nil
}
