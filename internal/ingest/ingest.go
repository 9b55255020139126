// Package ingest pulls live AER event batches from a ZeroMQ feed. Event
// cameras (or a replay tool) push CBOR wire messages on a PUSH socket; we
// PULL, decode and forward them on a channel.
package ingest

import (
	"context"
	"log"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"

	"evframe-go/internal/wire"
)

// recvTimeout bounds how long the receive loop blocks between context
// checks, so cancellation takes effect without waiting for a message.
const recvTimeout = 250 * time.Millisecond

// RawRecorder receives every raw payload before decoding, for replay logs.
type RawRecorder interface {
	Record(payload []byte) error
}

var decodeFailures atomic.Uint64

// DecodeFailures reports how many received payloads failed to decode.
func DecodeFailures() uint64 {
	return decodeFailures.Load()
}

// Stream connects to the endpoint and returns a channel of decoded wire
// messages. The channel closes when ctx is cancelled. Decode failures are
// counted and logged (rate-limited to every logEvery-th failure), not
// fatal; a live feed has no way to reject a stream.
func Stream(ctx context.Context, endpoint string, logEvery int, recorder RawRecorder) (<-chan wire.Message, error) {
	if logEvery < 1 {
		logEvery = 1
	}
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.SetRcvtimeo(recvTimeout); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	out := make(chan wire.Message, 128)
	go func() {
		defer close(out)
		defer socket.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			payload, err := socket.RecvBytes(0)
			if err != nil {
				if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
					// Receive timeout; loop around to the context check.
					continue
				}
				logEveryN(logEvery, "ingest recv error: %v", err)
				continue
			}
			if recorder != nil {
				if err := recorder.Record(payload); err != nil {
					log.Printf("raw log record failed: %v", err)
				}
			}

			msg, err := wire.Decode(payload)
			if err != nil {
				decodeFailures.Add(1)
				logEveryN(logEvery, "ingest decode error: %v", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- msg:
			}
		}
	}()

	return out, nil
}

var logCounter atomic.Uint64

func logEveryN(n int, format string, args ...any) {
	if logCounter.Add(1)%uint64(n) == 0 {
		log.Printf(format, args...)
	}
}
