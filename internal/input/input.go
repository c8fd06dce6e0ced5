// Package input supplies the deterministic fuzz input stream.
//
// A Source is a cursor over a single test case's bytes. Reads are
// order-sensitive and synchronous: they either succeed immediately or fail
// immediately with ErrExhausted once the buffer is consumed. Exhaustion is a
// normal fuzzing condition, never an error to surface to the user.
package input

import (
	"errors"
	"fmt"
	"os"

	"github.com/firmfuzz/firmfuzz/internal/snapshot"
)

// ErrExhausted is returned once all test-case bytes have been consumed.
var ErrExhausted = errors.New("fuzz input exhausted")

// Source reads bytes from a test-case buffer in a fixed order.
type Source struct {
	data []byte
	pos  int
}

// New creates a source over the given test-case bytes.
func New(data []byte) *Source {
	return &Source{data: data}
}

// FromFile loads a test-case file into a source.
func FromFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fuzz input %s: %w", path, err)
	}
	return New(data), nil
}

// ReadByte consumes and returns the next byte, or ErrExhausted.
func (s *Source) ReadByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, ErrExhausted
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// Remaining returns the number of unconsumed bytes.
func (s *Source) Remaining() int {
	return len(s.data) - s.pos
}

// Reset rewinds the cursor to the start of the buffer.
func (s *Source) Reset() {
	s.pos = 0
}

// AttachSnapshots registers the cursor position with the orchestrator so a
// restore rewinds consumed input. Without this, re-running the same events
// after a rollback would observe a different byte stream.
func (s *Source) AttachSnapshots(orc *snapshot.Orchestrator) {
	orc.Register(snapshot.Hooks{
		Name:    "fuzz-input",
		Capture: func() any { return s.pos },
		Restore: func(blob any) { s.pos = blob.(int) },
	})
}
