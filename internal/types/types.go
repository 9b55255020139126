package types

// Event is a single address-event representation (AER) record: one
// brightness change at pixel (X, Y), timestamped in microseconds, with a
// binary polarity (1 = increase, 0 = decrease). Events are produced by
// decoders and the simulator and never mutated afterwards.
type Event struct {
	X uint16
	Y uint16
	T int64
	P uint8
}

// Shape is the sensor's pixel bounds. Every event must satisfy
// X < Width and Y < Height.
type Shape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Window is a half-open time interval [Start, Start+duration) together with
// the events whose timestamps fall inside it. Events is a sub-slice of the
// run's event slice, not a copy.
type Window struct {
	Start  int64
	Events []Event
}
