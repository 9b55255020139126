// Package wire defines the CBOR message stream used by evframe capture
// files (.evc), the live ZMQ feed and the raw ingest log. A stream is a
// "start" message carrying the sensor shape, any number of "events"
// messages carrying column-oriented event batches, and an optional "end"
// message:
//
//	{ "type": "start", "width": <int>, "height": <int> }
//	{ "type": "events", "x": [...], "y": [...], "t": [...], "p": [...] }
//	{ "type": "end" }
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"evframe-go/internal/types"
)

const (
	TypeStart  = "start"
	TypeEvents = "events"
	TypeEnd    = "end"
)

type Message struct {
	Type   string   `cbor:"type"`
	Width  int      `cbor:"width,omitempty"`
	Height int      `cbor:"height,omitempty"`
	X      []uint16 `cbor:"x,omitempty"`
	Y      []uint16 `cbor:"y,omitempty"`
	T      []int64  `cbor:"t,omitempty"`
	P      []uint8  `cbor:"p,omitempty"`
}

func Decode(payload []byte) (Message, error) {
	var msg Message
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("decode wire message: %w", err)
	}
	return msg, nil
}

func Encode(msg Message) ([]byte, error) {
	return cbor.Marshal(msg)
}

// Shape extracts the sensor shape from a start message.
func (m Message) Shape() (types.Shape, error) {
	if m.Type != TypeStart {
		return types.Shape{}, fmt.Errorf("message type %q carries no shape", m.Type)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return types.Shape{}, fmt.Errorf("%w: sensor shape %dx%d", types.ErrInvalidConfig, m.Width, m.Height)
	}
	return types.Shape{Width: m.Width, Height: m.Height}, nil
}

// Events converts an events message's columns into Event records. The four
// columns must have equal length and every polarity must be 0 or 1.
func (m Message) Events() ([]types.Event, error) {
	if m.Type != TypeEvents {
		return nil, fmt.Errorf("message type %q carries no events", m.Type)
	}
	n := len(m.X)
	if len(m.Y) != n || len(m.T) != n || len(m.P) != n {
		return nil, fmt.Errorf("ragged event columns: x=%d y=%d t=%d p=%d",
			len(m.X), len(m.Y), len(m.T), len(m.P))
	}
	events := make([]types.Event, n)
	for i := 0; i < n; i++ {
		if m.P[i] > 1 {
			return nil, fmt.Errorf("polarity %d at index %d, want 0 or 1", m.P[i], i)
		}
		events[i] = types.Event{X: m.X[i], Y: m.Y[i], T: m.T[i], P: m.P[i]}
	}
	return events, nil
}

// BatchOf packs events back into column form for transport.
func BatchOf(events []types.Event) Message {
	msg := Message{
		Type: TypeEvents,
		X:    make([]uint16, len(events)),
		Y:    make([]uint16, len(events)),
		T:    make([]int64, len(events)),
		P:    make([]uint8, len(events)),
	}
	for i, ev := range events {
		msg.X[i] = ev.X
		msg.Y[i] = ev.Y
		msg.T[i] = ev.T
		msg.P[i] = ev.P
	}
	return msg
}

// Writer emits a message stream onto an io.Writer.
type Writer struct {
	enc *cbor.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

func (w *Writer) Write(msg Message) error {
	return w.enc.Encode(msg)
}

// Reader consumes a message stream from an io.Reader. Next returns
// io.EOF once the stream is exhausted.
type Reader struct {
	dec *cbor.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

func (r *Reader) Next() (Message, error) {
	var msg Message
	err := r.dec.Decode(&msg)
	if errors.Is(err, io.EOF) {
		return Message{}, io.EOF
	}
	if err != nil {
		return Message{}, fmt.Errorf("decode wire message: %w", err)
	}
	return msg, nil
}
