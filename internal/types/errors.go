package types

import "errors"

var (
	// ErrInvalidConfig marks a non-positive window duration, frame rate or
	// sensor dimension. Fatal; nothing is produced.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrOutOfBounds marks an event whose coordinates lie outside the
	// sensor shape.
	ErrOutOfBounds = errors.New("event out of sensor bounds")

	// ErrUnordered marks an event sequence whose timestamps decrease.
	ErrUnordered = errors.New("events not in timestamp order")
)
