package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/telemetry"
)

// FakeClock is a settable clock for deterministic time-dependent tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock frozen at start. A zero start uses a fixed
// reference instant.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	}
	return &FakeClock{now: start}
}

// Now returns the clock's current instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to a specific instant.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// FlakyStore wraps a Store and fails scripted numbers of upcoming calls,
// standing in for a broken backing medium.
type FlakyStore struct {
	memory.Store

	mu          sync.Mutex
	failPuts    int
	failGets    int
	failTouches int
}

// NewFlakyStore wraps an existing store.
func NewFlakyStore(inner memory.Store) *FlakyStore {
	return &FlakyStore{Store: inner}
}

// FailNextPuts makes the next n Put calls fail.
func (s *FlakyStore) FailNextPuts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = n
}

// FailNextGets makes the next n Get calls fail.
func (s *FlakyStore) FailNextGets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGets = n
}

// FailNextTouches makes the next n Touch calls fail.
func (s *FlakyStore) FailNextTouches(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTouches = n
}

func (s *FlakyStore) take(counter *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *counter > 0 {
		*counter--
		return true
	}
	return false
}

func (s *FlakyStore) Put(content string, properties map[string]interface{}) (*memory.Record, error) {
	if s.take(&s.failPuts) {
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to persist memory", fmt.Errorf("scripted failure"))
	}
	return s.Store.Put(content, properties)
}

func (s *FlakyStore) Get(id string) (*memory.Record, error) {
	if s.take(&s.failGets) {
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to read memory", fmt.Errorf("scripted failure"))
	}
	return s.Store.Get(id)
}

func (s *FlakyStore) Touch(id string, at time.Time) error {
	if s.take(&s.failTouches) {
		return errors.Wrap(errors.CodeStorageFailed, "failed to touch memory", fmt.Errorf("scripted failure"))
	}
	return s.Store.Touch(id, at)
}

// TestLogger returns a logger suitable for tests (verbose, no file output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger(true)
}

// TestConfig returns a minimal config for testing: in-memory storage, no
// hooks, no metrics export.
func TestConfig() *config.Config {
	return &config.Config{
		Name:    "test-project",
		Version: "1.0",
		Storage: config.StorageConfig{
			Driver: "memory",
		},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "text",
		},
		Search: config.SearchConfig{
			DefaultLimit: 10,
		},
	}
}
