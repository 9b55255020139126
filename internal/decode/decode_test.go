package decode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"evframe-go/internal/types"
	"evframe-go/internal/wire"
)

func TestCSV(t *testing.T) {
	input := "3,3\n0,0,0,1\n1,1,500,0\n2,2,1100,1\n"
	shape, events, err := CSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("CSV error: %v", err)
	}
	if shape.Width != 3 || shape.Height != 3 {
		t.Fatalf("shape = %+v, want 3x3", shape)
	}
	want := []types.Event{
		{X: 0, Y: 0, T: 0, P: 1},
		{X: 1, Y: 1, T: 500, P: 0},
		{X: 2, Y: 2, T: 1100, P: 1},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestCSVRejectsBadRows(t *testing.T) {
	cases := []string{
		"3\n",                // short header
		"0,3\n",              // zero width
		"3,3\n1,1,100\n",     // short row
		"3,3\n1,1,100,2\n",   // polarity out of range
		"3,3\n70000,1,0,1\n", // coordinate past uint16
		"3,3\nx,1,100,1\n",   // non-numeric
	}
	for _, input := range cases {
		if _, _, err := CSV(strings.NewReader(input)); err == nil {
			t.Fatalf("input %q accepted", input)
		}
	}
}

func TestCSVRejectsUnordered(t *testing.T) {
	input := "3,3\n0,0,500,1\n1,1,100,0\n"
	_, _, err := CSV(strings.NewReader(input))
	if !errors.Is(err, types.ErrUnordered) {
		t.Fatalf("want ErrUnordered, got %v", err)
	}
}

func captureBytes(t *testing.T, msgs ...wire.Message) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	for _, msg := range msgs {
		if err := w.Write(msg); err != nil {
			t.Fatalf("write capture: %v", err)
		}
	}
	return &buf
}

func TestCapture(t *testing.T) {
	buf := captureBytes(t,
		wire.Message{Type: wire.TypeStart, Width: 8, Height: 6},
		wire.BatchOf([]types.Event{{X: 1, Y: 2, T: 10, P: 1}}),
		wire.BatchOf([]types.Event{{X: 3, Y: 4, T: 20, P: 0}}),
		wire.Message{Type: wire.TypeEnd},
	)
	shape, events, err := Capture(buf)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if shape.Width != 8 || shape.Height != 6 {
		t.Fatalf("shape = %+v, want 8x6", shape)
	}
	if len(events) != 2 || events[0].T != 10 || events[1].T != 20 {
		t.Fatalf("events = %v", events)
	}
}

func TestCaptureWithoutEndMessage(t *testing.T) {
	buf := captureBytes(t,
		wire.Message{Type: wire.TypeStart, Width: 8, Height: 6},
		wire.BatchOf([]types.Event{{X: 1, Y: 2, T: 10, P: 1}}),
	)
	_, events, err := Capture(buf)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestCaptureRejectsMissingStart(t *testing.T) {
	buf := captureBytes(t, wire.BatchOf([]types.Event{{T: 10}}))
	if _, _, err := Capture(buf); err == nil {
		t.Fatal("capture without start message accepted")
	}
}

func TestCaptureRejectsUnordered(t *testing.T) {
	buf := captureBytes(t,
		wire.Message{Type: wire.TypeStart, Width: 8, Height: 6},
		wire.BatchOf([]types.Event{{T: 100}}),
		wire.BatchOf([]types.Event{{T: 50}}),
	)
	_, _, err := Capture(buf)
	if !errors.Is(err, types.ErrUnordered) {
		t.Fatalf("want ErrUnordered, got %v", err)
	}
}

func TestFileRejectsUnknownExtension(t *testing.T) {
	if _, _, err := File("events.aedat"); err == nil {
		t.Fatal("unknown extension accepted")
	}
}
