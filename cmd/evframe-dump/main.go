// evframe-dump inspects evframe data files: capture streams (.evc/.cbor)
// and raw ingest logs (.bin) recorded by evframe-live.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evframe-go/internal/output"
	"evframe-go/internal/wire"
)

func main() {
	var (
		path  = flag.String("path", "", "Path to a capture (.evc/.cbor) or raw ingest log (.bin)")
		limit = flag.Int("limit", 5, "Max number of event batches to detail (0 = summary only)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("missing -path")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(*path)) {
	case ".bin":
		err = dumpRawLog(f, *limit)
	default:
		err = dumpCapture(wire.NewReader(f), *limit)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func dumpCapture(r *wire.Reader, limit int) error {
	var batches, events int
	for {
		msg, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		describe(msg, batches, limit)
		if msg.Type == wire.TypeEvents {
			batches++
			events += len(msg.X)
		}
	}
	fmt.Printf("summary: batches=%d events=%d\n", batches, events)
	return nil
}

func dumpRawLog(f *os.File, limit int) error {
	r, err := output.NewRawLogReader(f)
	if err != nil {
		return err
	}
	var records, batches, events, undecodable int
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		records++
		msg, err := wire.Decode(rec.Payload)
		if err != nil {
			undecodable++
			continue
		}
		if batches < limit {
			fmt.Printf("record %d received=%s size=%d\n",
				records, rec.Time.Format(time.RFC3339Nano), len(rec.Payload))
		}
		describe(msg, batches, limit)
		if msg.Type == wire.TypeEvents {
			batches++
			events += len(msg.X)
		}
	}
	fmt.Printf("summary: records=%d batches=%d events=%d undecodable=%d\n",
		records, batches, events, undecodable)
	return nil
}

func describe(msg wire.Message, batchesSeen, limit int) {
	switch msg.Type {
	case wire.TypeStart:
		fmt.Printf("start: sensor %dx%d\n", msg.Width, msg.Height)
	case wire.TypeEnd:
		fmt.Println("end")
	case wire.TypeEvents:
		if batchesSeen >= limit {
			return
		}
		fmt.Printf("events: count=%d", len(msg.X))
		if n := len(msg.T); n > 0 {
			fmt.Printf(" t=[%dµs, %dµs]", msg.T[0], msg.T[n-1])
		}
		fmt.Println()
	default:
		fmt.Printf("unknown message type %q\n", msg.Type)
	}
}
