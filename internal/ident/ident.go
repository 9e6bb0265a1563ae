package ident

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock supplies timestamps for new records and state transitions.
// Implementations must return non-decreasing times.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// IDGenerator allocates identifiers for memory records. Generated ids are
// opaque strings, unique for the generator's lifetime and never reused.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces random UUID identifiers.
type UUIDGenerator struct{}

// NewID returns a fresh UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// Sequence produces "<prefix>_<n>" identifiers from an atomic counter.
// Deterministic ordering makes it useful for the in-memory driver and tests.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence creates a sequence generator. An empty prefix defaults to "mem".
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "mem"
	}
	return &Sequence{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s_%d", s.prefix, s.n.Add(1))
}
