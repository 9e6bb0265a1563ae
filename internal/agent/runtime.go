// Package agent composes the memory store, search index and state tracker
// behind a single agent identity and exposes the memory operations.
package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/ident"
	"github.com/engram-oss/engram/internal/lifecycle"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/search"
	"github.com/engram-oss/engram/internal/state"
	"github.com/engram-oss/engram/internal/telemetry"
)

// Scope membership rides on a reserved tag so scope filtering works on any
// store driver without schema changes.
const scopeTagPrefix = "_scope:"

func scopeTag(name string) string {
	return scopeTagPrefix + name
}

// Runtime owns one agent's memory. Each runtime has exclusive use of its
// store, index and tracker; distinct agents share nothing.
//
// Mutations serialize under the write lock, reads share the read lock, so
// every operation observes a consistent store/index pair. Safe for
// concurrent use from any number of goroutines.
type Runtime struct {
	mu sync.RWMutex

	id          string
	description string

	store   memory.Store
	index   *search.Index
	tracker *state.Tracker
	scopes  map[string]string // name -> description

	curve       *lifecycle.Curve
	thresholds  lifecycle.Thresholds
	searchLimit int

	clock    ident.Clock
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	bus      *event.Bus
	exporter telemetry.MetricsExporter

	closed bool
}

// ID returns the agent identifier.
func (r *Runtime) ID() string {
	return r.id
}

// Description returns the agent description.
func (r *Runtime) Description() string {
	return r.description
}

// State returns a point-in-time snapshot of the agent's lifecycle. Always
// answers, even after Stop.
func (r *Runtime) State() state.Snapshot {
	return r.tracker.Snapshot()
}

// Status returns the agent's current lifecycle status.
func (r *Runtime) Status() state.Status {
	return r.tracker.Status()
}

// Metrics returns the runtime's metrics collector.
func (r *Runtime) Metrics() *telemetry.Metrics {
	return r.metrics
}

// Remember stores a new memory and returns its id.
func (r *Runtime) Remember(text string, opts ...RememberOption) (string, error) {
	return r.rememberScoped("", text, opts)
}

// RememberFact stores a memory of kind fact.
func (r *Runtime) RememberFact(text string, opts ...RememberOption) (string, error) {
	return r.Remember(text, append([]RememberOption{WithKind(memory.KindFact)}, opts...)...)
}

// RememberConversation stores a memory of kind conversation.
func (r *Runtime) RememberConversation(text string, opts ...RememberOption) (string, error) {
	return r.Remember(text, append([]RememberOption{WithKind(memory.KindConversation)}, opts...)...)
}

// RememberIn stores a memory in a named scope. The scope must be defined
// first via DefineScope; the default scope is always available.
func (r *Runtime) RememberIn(scope, text string, opts ...RememberOption) (string, error) {
	if strings.TrimSpace(scope) == "" {
		return "", errors.New(errors.CodeInvalidInput, "scope name must not be empty")
	}
	return r.rememberScoped(scope, text, opts)
}

func (r *Runtime) rememberScoped(scope, text string, opts []RememberOption) (string, error) {
	start := time.Now()
	settings := newRememberSettings(opts)

	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.CodeInvalidInput, "memory content must not be empty").
			WithSuggestion("Pass the text to remember as a non-empty string")
	}
	if err := validateSettings(settings); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tracker.Stopped() {
		return "", r.stoppedErr()
	}
	if scope != "" {
		if _, ok := r.scopes[scope]; !ok {
			return "", scopeNotFoundErr(scope)
		}
		settings.tags = append(settings.tags, scopeTag(scope))
	}
	r.touchState()

	rec, err := r.store.Put(text, settings.properties())
	if err != nil {
		r.metrics.IncStoreErrors()
		return "", err
	}
	r.index.Index(rec.ID, rec.Content)

	r.metrics.IncMemoriesStored()
	r.metrics.RecordPutDuration(time.Since(start))
	r.metrics.SetIndexEntries(int64(r.index.Len()))
	r.emit(event.MemoryStored, map[string]interface{}{"id": rec.ID})
	r.logger.Debug("Memory stored", "agent", r.id, "memory", rec.ID)

	return rec.ID, nil
}

// SearchMemories returns the memories whose content contains the query,
// compared case-insensitively. Results are ordered most relevant first;
// ties go to the more recently created memory. An empty query returns an
// empty result, never all memories.
func (r *Runtime) SearchMemories(query string, opts ...SearchOption) ([]*memory.Record, error) {
	return r.searchScoped("", query, opts)
}

// SearchIn searches within a named scope. Only memories stored in that
// scope are returned.
func (r *Runtime) SearchIn(scope, query string, opts ...SearchOption) ([]*memory.Record, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "scope name must not be empty")
	}
	return r.searchScoped(scope, query, opts)
}

func (r *Runtime) searchScoped(scope, query string, opts []SearchOption) ([]*memory.Record, error) {
	start := time.Now()
	settings := newSearchSettings(r.searchLimit, opts)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tracker.Stopped() {
		return nil, r.stoppedErr()
	}
	tag := ""
	if scope != "" {
		if _, ok := r.scopes[scope]; !ok {
			return nil, scopeNotFoundErr(scope)
		}
		tag = scopeTag(scope)
	}
	r.touchState()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []*memory.Record{}, nil
	}

	now := r.clock.Now()
	needle := strings.ToLower(trimmed)

	type hit struct {
		rec   *memory.Record
		score float64
		seq   uint64
	}
	cands := r.index.Search(trimmed)
	hits := make([]hit, 0, len(cands))
	for _, cand := range cands {
		rec, err := r.store.Get(cand.ID)
		if err != nil {
			if errors.IsNotFound(err) {
				continue // stale posting; the store is authoritative
			}
			r.metrics.IncStoreErrors()
			return nil, err
		}
		if !strings.Contains(strings.ToLower(rec.Content), needle) {
			continue
		}
		if tag != "" && !rec.HasTag(tag) {
			continue
		}
		hits = append(hits, hit{
			rec:   rec,
			score: cand.Score * r.curve.Strength(rec, now),
			seq:   cand.Seq,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if !hits[i].rec.CreatedAt.Equal(hits[j].rec.CreatedAt) {
			return hits[i].rec.CreatedAt.After(hits[j].rec.CreatedAt)
		}
		return hits[i].seq > hits[j].seq
	})
	if len(hits) > settings.limit {
		hits = hits[:settings.limit]
	}

	out := make([]*memory.Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}

	r.metrics.IncSearchesRun()
	r.metrics.RecordSearchDuration(time.Since(start))
	r.logger.Debug("Search completed", "agent", r.id, "query", trimmed, "results", len(out))

	return out, nil
}

// GetMemory returns the memory with the given id, or (nil, nil) when no
// such memory exists. A successful lookup bumps the record's access
// bookkeeping.
func (r *Runtime) GetMemory(id string) (*memory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tracker.Stopped() {
		return nil, r.stoppedErr()
	}
	r.touchState()

	if err := r.store.Touch(id, r.clock.Now()); err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		r.metrics.IncStoreErrors()
		return nil, err
	}
	rec, err := r.store.Get(id)
	if err != nil {
		r.metrics.IncStoreErrors()
		return nil, err
	}

	r.metrics.IncMemoriesRecalled()
	r.emit(event.MemoryAccessed, map[string]interface{}{"id": id})

	return rec, nil
}

// SetProperties merges the given keys into a memory's property map,
// overwriting existing keys. Returns MEMORY_NOT_FOUND for unknown ids.
func (r *Runtime) SetProperties(id string, props map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tracker.Stopped() {
		return r.stoppedErr()
	}
	r.touchState()

	if err := r.store.SetProperties(id, props); err != nil {
		if !errors.IsNotFound(err) {
			r.metrics.IncStoreErrors()
		}
		return err
	}
	r.emit(event.MemoryUpdated, map[string]interface{}{"id": id})
	return nil
}

// Forget removes a memory from the store and the index. Returns false
// when the id was already absent.
func (r *Runtime) Forget(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tracker.Stopped() {
		return false, r.stoppedErr()
	}
	r.touchState()

	removed, err := r.store.Delete(id)
	if err != nil {
		r.metrics.IncStoreErrors()
		return false, err
	}
	if !removed {
		return false, nil
	}

	r.index.Remove(id)
	r.metrics.IncMemoriesForgotten()
	r.metrics.SetIndexEntries(int64(r.index.Len()))
	r.emit(event.MemoryRemoved, map[string]interface{}{"id": id})
	return true, nil
}

// CountMemories returns the number of stored memories.
func (r *Runtime) CountMemories() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tracker.Stopped() {
		return 0, r.stoppedErr()
	}
	return r.store.Count()
}

// DefineScope registers a named scope for RememberIn and SearchIn.
// Redefining a scope replaces its description.
func (r *Runtime) DefineScope(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.CodeInvalidInput, "scope name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tracker.Stopped() {
		return r.stoppedErr()
	}
	r.scopes[name] = description
	return nil
}

// Scopes returns the defined scope names in sorted order.
func (r *Runtime) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scopes))
	for name := range r.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Relevance reports a record's current retention strength and the level
// name its strength falls into.
func (r *Runtime) Relevance(rec *memory.Record) (float64, string) {
	s := r.curve.Strength(rec, r.clock.Now())
	return s, r.thresholds.Level(s)
}

// Stop moves the agent to the terminal stopped status. After Stop every
// memory operation fails with AGENT_STOPPED; State, Status and ID still
// answer. Idempotent.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	return nil
}

func (r *Runtime) stopLocked() {
	if r.tracker.Stopped() {
		return
	}
	before := r.tracker.Status()
	r.tracker.Stop()
	r.emit(event.StateChanged, map[string]interface{}{
		"from": string(before),
		"to":   string(state.StatusStopped),
	})
	r.emit(event.AgentStopped, nil)
	r.logger.Info("Agent stopped", "agent", r.id)
}

// Close stops the agent, flushes metrics and releases the store.
// Idempotent.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.stopLocked()
	r.metrics.AgentClosed()
	r.metrics.Flush("agent.closed", map[string]string{"agent": r.id})

	var firstErr error
	if r.exporter != nil {
		if err := r.exporter.Close(); err != nil {
			firstErr = err
		}
	}
	if err := r.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// touchState records activity and emits a state.changed event when the
// touch caused a real status transition.
func (r *Runtime) touchState() {
	before := r.tracker.Status()
	r.tracker.Touch()
	if after := r.tracker.Status(); after != before {
		r.emit(event.StateChanged, map[string]interface{}{
			"from": string(before),
			"to":   string(after),
		})
	}
}

// emit dispatches an event. Hook failures are logged, never returned; a
// broken hook must not fail a memory operation.
func (r *Runtime) emit(t event.EventType, data map[string]interface{}) {
	if err := r.bus.Emit(event.NewEvent(t, r.id, data)); err != nil {
		r.logger.Warn("Event hook failed", "event", string(t), "error", err)
	}
}

func (r *Runtime) stoppedErr() error {
	return errors.New(errors.CodeAgentStopped, fmt.Sprintf("agent %s is stopped", r.id)).
		WithSuggestion("Build a new runtime; a stopped agent cannot be restarted")
}

func scopeNotFoundErr(scope string) error {
	return errors.New(errors.CodeScopeNotFound, fmt.Sprintf("scope %q is not defined", scope)).
		WithSuggestion("Define the scope with DefineScope before using it")
}

func validateSettings(s rememberSettings) error {
	switch s.priority {
	case "", memory.PriorityLow, memory.PriorityNormal, memory.PriorityHigh, memory.PriorityCritical:
	default:
		return errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid priority: %s", s.priority)).
			WithSuggestion("Use low, normal, high or critical")
	}
	switch s.kind {
	case "", memory.KindEpisodic, memory.KindFact, memory.KindConversation:
	default:
		return errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid kind: %s", s.kind)).
			WithSuggestion("Use episodic, fact or conversation")
	}
	return nil
}
