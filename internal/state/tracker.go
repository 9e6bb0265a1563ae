// Package state tracks an agent's lifecycle status and activity times.
package state

import (
	"sync"
	"time"

	"github.com/engram-oss/engram/internal/ident"
)

// Status is an agent's lifecycle phase.
type Status string

const (
	StatusCreated Status = "created"
	StatusActive  Status = "active"
	StatusIdle    Status = "idle"
	StatusStopped Status = "stopped"
)

// Snapshot is a point-in-time view of an agent's lifecycle. It mirrors
// live fields and is never persisted on its own.
type Snapshot struct {
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	LastActive time.Time `json:"last_active"`
}

// Tracker advances an agent through created, active, idle and stopped.
// Idle is evaluated lazily when a snapshot is taken; the tracker runs no
// background timers. Safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	clock       ident.Clock
	status      Status
	startedAt   time.Time
	lastActive  time.Time
	idleTimeout time.Duration
}

// NewTracker returns a tracker in the created status. An idleTimeout of
// zero disables the idle transition.
func NewTracker(clock ident.Clock, idleTimeout time.Duration) *Tracker {
	now := clock.Now()
	return &Tracker{
		clock:       clock,
		status:      StatusCreated,
		startedAt:   now,
		lastActive:  now,
		idleTimeout: idleTimeout,
	}
}

// Touch marks activity: last_active moves to now and the agent becomes
// active. A stopped agent stays stopped.
func (t *Tracker) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusStopped {
		return
	}
	t.lastActive = t.clock.Now()
	t.status = StatusActive
}

// Snapshot returns the current status and timestamps. Always succeeds.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusActive && t.idleTimeout > 0 &&
		t.clock.Now().Sub(t.lastActive) >= t.idleTimeout {
		t.status = StatusIdle
	}

	return Snapshot{
		Status:     t.status,
		StartedAt:  t.startedAt,
		LastActive: t.lastActive,
	}
}

// Status returns the current lifecycle phase.
func (t *Tracker) Status() Status {
	return t.Snapshot().Status
}

// Stop moves the agent to the terminal stopped status.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.status = StatusStopped
	t.mu.Unlock()
}

// Stopped reports whether the agent has been stopped.
func (t *Tracker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusStopped
}
