package gpio

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// FakeWriter is a test double that records every level written.
// Safe for concurrent use.
type FakeWriter struct {
	mu sync.Mutex

	// levels holds every successfully written level, in order.
	levels []bool

	// writeErr, if set, is returned by Write and the level is not recorded.
	writeErr error

	closed bool
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Write records the level.
func (f *FakeWriter) Write(level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.levels = append(f.levels, level)
	return nil
}

// Close marks the writer as closed and records a final low level.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = append(f.levels, false)
	f.closed = true
	return nil
}

// SetError makes subsequent writes fail with err (nil clears it).
func (f *FakeWriter) SetError(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// Levels returns a copy of the recorded levels.
func (f *FakeWriter) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.levels))
	copy(out, f.levels)
	return out
}

// Last returns the most recent level and whether any was written.
func (f *FakeWriter) Last() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.levels) == 0 {
		return false, false
	}
	return f.levels[len(f.levels)-1], true
}

// Closed reports whether Close was called.
func (f *FakeWriter) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded levels and errors.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	f.levels = nil
	f.writeErr = nil
	f.closed = false
	f.mu.Unlock()
}

// NullWriter discards writes. Used in safe mode, where the hub runs
// without touching hardware.
type NullWriter struct {
	Pin int
}

// Write logs the level at debug and discards it.
func (n NullWriter) Write(level bool) error {
	log.Debug().Int("pin", n.Pin).Int("level", value(level)).Msg("safe mode: gpio write skipped")
	return nil
}

// Close does nothing.
func (n NullWriter) Close() error {
	return nil
}
