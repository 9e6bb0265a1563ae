package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts memory operations for one runtime. Counters are atomics;
// the mutex guards only the duration samples and the exporter handle.
type Metrics struct {
	stored    atomic.Int64
	recalled  atomic.Int64
	forgotten atomic.Int64
	searches  atomic.Int64
	errors    atomic.Int64

	openAgents   atomic.Int64
	indexEntries atomic.Int64

	mu              sync.RWMutex
	putDurations    []time.Duration
	searchDurations []time.Duration
	exporter        MetricsExporter
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		putDurations:    make([]time.Duration, 0, 1000),
		searchDurations: make([]time.Duration, 0, 1000),
	}
}

func (m *Metrics) IncMemoriesStored()    { m.stored.Add(1) }
func (m *Metrics) IncMemoriesRecalled()  { m.recalled.Add(1) }
func (m *Metrics) IncMemoriesForgotten() { m.forgotten.Add(1) }
func (m *Metrics) IncSearchesRun()       { m.searches.Add(1) }
func (m *Metrics) IncStoreErrors()       { m.errors.Add(1) }

// AgentOpened and AgentClosed move the open-agents gauge.
func (m *Metrics) AgentOpened() { m.openAgents.Add(1) }
func (m *Metrics) AgentClosed() { m.openAgents.Add(-1) }

// SetIndexEntries records the current index size.
func (m *Metrics) SetIndexEntries(n int64) { m.indexEntries.Store(n) }

// RecordPutDuration adds one put timing sample.
func (m *Metrics) RecordPutDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putDurations = append(m.putDurations, d)
}

// RecordSearchDuration adds one search timing sample.
func (m *Metrics) RecordSearchDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchDurations = append(m.searchDurations, d)
}

// GetSummary renders the counters and average timings as a flat map, the
// shape both the status command and the exporter consume.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"memories_stored":    m.stored.Load(),
		"memories_recalled":  m.recalled.Load(),
		"memories_forgotten": m.forgotten.Load(),
		"searches_run":       m.searches.Load(),
		"store_errors":       m.errors.Load(),
		"open_agents":        m.openAgents.Load(),
		"index_entries":      m.indexEntries.Load(),
	}
	if len(m.putDurations) > 0 {
		summary["avg_put_duration_us"] = avgMicros(m.putDurations)
	}
	if len(m.searchDurations) > 0 {
		summary["avg_search_duration_us"] = avgMicros(m.searchDurations)
	}
	return summary
}

func avgMicros(samples []time.Duration) int64 {
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total.Microseconds() / int64(len(samples))
}

// Reset zeroes every counter and drops the timing samples.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stored.Store(0)
	m.recalled.Store(0)
	m.forgotten.Store(0)
	m.searches.Store(0)
	m.errors.Store(0)
	m.openAgents.Store(0)
	m.indexEntries.Store(0)

	m.putDurations = m.putDurations[:0]
	m.searchDurations = m.searchDurations[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush writes the current summary through the exporter, tagged with the
// occasioning event. Export failures must not fail the operation being
// measured, so they are dropped.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()
	if exporter == nil {
		return
	}

	_ = exporter.Export(MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	})
}
