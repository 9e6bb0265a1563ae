package testutil

import (
	"sync"
	"testing"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/telemetry"
)

// Harness provides everything needed for agent-level tests: config, an
// event bus with capture, a logger and assertion helpers.
type Harness struct {
	T      *testing.T
	Config *config.Config
	Bus    *event.Bus
	Logger *telemetry.Logger

	mu     sync.Mutex
	events []event.Event
}

// NewHarness creates a harness with the test configuration and an event
// bus that records every emitted event.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	logger := TestLogger()
	bus := event.NewBus(logger)

	h := &Harness{
		T:      t,
		Config: TestConfig(),
		Bus:    bus,
		Logger: logger,
	}
	bus.Register(&eventCapture{harness: h})

	return h
}

// Events returns a copy of the captured events.
func (h *Harness) Events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]event.Event, len(h.events))
	copy(out, h.events)
	return out
}

// EventCount returns how many captured events have the given type.
func (h *Harness) EventCount(et event.EventType) int {
	n := 0
	for _, e := range h.Events() {
		if e.Type == et {
			n++
		}
	}
	return n
}

// AssertEventEmitted fails the test unless at least one event of the given
// type was captured.
func (h *Harness) AssertEventEmitted(et event.EventType) {
	h.T.Helper()
	if h.EventCount(et) == 0 {
		h.T.Errorf("event %q was never emitted", et)
	}
}

// AssertNoEvent fails the test if any event of the given type was captured.
func (h *Harness) AssertNoEvent(et event.EventType) {
	h.T.Helper()
	if n := h.EventCount(et); n > 0 {
		h.T.Errorf("event %q should not have been emitted (seen %d times)", et, n)
	}
}

// eventCapture is a blocking hook that records events. Appends are mutex
// guarded because concurrent readers emit concurrently.
type eventCapture struct {
	harness *Harness
}

func (c *eventCapture) Name() string                     { return "test-capture" }
func (c *eventCapture) Subscriptions() []event.EventType { return nil } // every event
func (c *eventCapture) IsBlocking() bool                 { return true } // sync for tests

func (c *eventCapture) Handle(ev event.Event) error {
	c.harness.mu.Lock()
	defer c.harness.mu.Unlock()
	c.harness.events = append(c.harness.events, ev)
	return nil
}
