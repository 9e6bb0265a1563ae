package event

import (
	"errors"
	"fmt"
	"sync"
)

// Logger is the minimal logging surface the bus needs, kept local so the
// package stays free of the telemetry dependency.
type Logger interface {
	Warn(msg string, keyvals ...interface{})
}

// subscription pairs a hook with its precomputed type set. A nil set means
// the hook wants every event; the set is built once at Register so Emit
// never walks a hook's subscription list.
type subscription struct {
	hook  Hook
	types map[EventType]struct{}
}

func (s subscription) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Bus fans lifecycle events out to registered hooks.
//
// Blocking hooks run inline in registration order and their failures are
// joined into Emit's return value; one broken hook does not hide another's
// error. Non-blocking hooks each run in their own goroutine with panics
// captured and logged. A nil *Bus accepts every call as a no-op, so callers
// never guard emission sites.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	paused bool
	logger Logger
}

// NewBus returns a dispatching bus. A nil logger silences async failures.
func NewBus(logger Logger) *Bus {
	return &Bus{logger: logger}
}

// Register adds a hook. The hook's Subscriptions are read once, here;
// changing them later has no effect.
func (b *Bus) Register(h Hook) {
	if b == nil || h == nil {
		return
	}

	sub := subscription{hook: h}
	if types := h.Subscriptions(); len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// Pause stops dispatch; events emitted while paused are dropped.
func (b *Bus) Pause() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.paused = true
	b.mu.Unlock()
}

// Resume re-enables dispatch after Pause.
func (b *Bus) Resume() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.paused = false
	b.mu.Unlock()
}

// Emit delivers one event. The returned error aggregates every blocking
// hook failure; async hook outcomes are logged, never returned.
func (b *Bus) Emit(ev Event) error {
	if b == nil {
		return nil
	}

	b.mu.RLock()
	if b.paused {
		b.mu.RUnlock()
		return nil
	}
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if !sub.wants(ev.Type) {
			continue
		}
		if sub.hook.IsBlocking() {
			if err := sub.hook.Handle(ev); err != nil {
				errs = append(errs, fmt.Errorf("hook %s: %w", sub.hook.Name(), err))
			}
			continue
		}
		go b.deliver(sub.hook, ev)
	}
	return errors.Join(errs...)
}

// deliver runs one async hook, containing its panic and logging failures.
func (b *Bus) deliver(h Hook, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.warn("Event hook panicked", "hook", h.Name(), "event", ev.Type.String(), "panic", r)
		}
	}()
	if err := h.Handle(ev); err != nil {
		b.warn("Event hook failed", "hook", h.Name(), "event", ev.Type.String(), "error", err)
	}
}

func (b *Bus) warn(msg string, keyvals ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(msg, keyvals...)
	}
}
