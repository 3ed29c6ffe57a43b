// Package telemetry samples simulation snapshots into a CSV file.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
)

// Recorder appends a Record every `every` ticks.
type Recorder struct {
	out           io.Writer
	closer        io.Closer
	every         uint64
	headerWritten bool
	written       int
}

// NewRecorder writes to out. every below 1 records every tick.
func NewRecorder(out io.Writer, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{out: out, every: uint64(every)}
}

// Create opens path for writing, creating its directory. Returns nil when
// path is empty (telemetry disabled); a nil Recorder ignores every call.
func Create(path string, every int) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	r := NewRecorder(f, every)
	r.closer = f
	return r, nil
}

// Observe records s if its tick falls on the sampling interval.
func (r *Recorder) Observe(s *simulation.Snapshot) error {
	if r == nil || s == nil || s.Tick%r.every != 0 {
		return nil
	}
	return r.Write(Summarize(s))
}

func (r *Recorder) Write(rec Record) error {
	if r == nil {
		return nil
	}
	records := []Record{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	r.written++
	return nil
}

// Written is the number of records written so far.
func (r *Recorder) Written() int {
	if r == nil {
		return 0
	}
	return r.written
}

func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
