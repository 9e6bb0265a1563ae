// Package event carries the agent's lifecycle notifications to operator
// configured hooks. Emitting is always optional: a runtime without a bus
// works identically, it just tells nobody.
package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

// The full event vocabulary. Hooks subscribe to a subset of these, or to
// all of them by subscribing to none.
const (
	AgentStarted EventType = "agent.started"
	AgentStopped EventType = "agent.stopped"

	MemoryStored   EventType = "memory.stored"
	MemoryAccessed EventType = "memory.accessed"
	MemoryUpdated  EventType = "memory.updated"
	MemoryRemoved  EventType = "memory.removed"

	IndexRebuilt EventType = "index.rebuilt"
	StateChanged EventType = "state.changed"
)

func (t EventType) String() string { return string(t) }

// Event is one lifecycle occurrence. Data carries event specific details,
// such as the memory id for memory.* events.
type Event struct {
	Type      EventType              `json:"type"`
	Agent     string                 `json:"agent,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent stamps an event with the current wall-clock time. Event
// timestamps are observability metadata, not memory bookkeeping, so they
// do not go through the runtime's clock.
func NewEvent(t EventType, agent string, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Agent:     agent,
		Timestamp: time.Now(),
		Data:      data,
	}
}
