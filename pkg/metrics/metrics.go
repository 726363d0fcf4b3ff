// Package metrics provides metrics implementations for UserDeck
package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/userdeck/userdeck/pkg/interfaces"
)

// NoOpMetrics is a no-operation metrics implementation
type NoOpMetrics struct{}

// Counter increments a counter metric
func (m *NoOpMetrics) Counter(name string, value float64, labels map[string]string) {}

// Gauge sets a gauge metric
func (m *NoOpMetrics) Gauge(name string, value float64, labels map[string]string) {}

// Timer records timing metrics
func (m *NoOpMetrics) Timer(name string, duration float64, labels map[string]string) {}

// TimerStats aggregates the observations of one timer series
type TimerStats struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Max   float64 `json:"max"`
}

// Recorder is an in-memory metrics recorder. The API server records request
// counters and latencies into it and exposes a snapshot on /metrics.
type Recorder struct {
	mu       sync.RWMutex
	counters map[string]float64
	gauges   map[string]float64
	timers   map[string]TimerStats
}

// Counter increments a counter metric
func (m *Recorder) Counter(name string, value float64, labels map[string]string) {
	key := seriesKey(name, labels)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += value
}

// Gauge sets a gauge metric
func (m *Recorder) Gauge(name string, value float64, labels map[string]string) {
	key := seriesKey(name, labels)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[key] = value
}

// Timer records timing metrics
func (m *Recorder) Timer(name string, duration float64, labels map[string]string) {
	key := seriesKey(name, labels)
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.timers[key]
	stats.Count++
	stats.Sum += duration
	if duration > stats.Max {
		stats.Max = duration
	}
	m.timers[key] = stats
}

// Snapshot is a point-in-time copy of every recorded series
type Snapshot struct {
	Counters map[string]float64    `json:"counters"`
	Gauges   map[string]float64    `json:"gauges"`
	Timers   map[string]TimerStats `json:"timers"`
}

// Snapshot returns the current values of all series
func (m *Recorder) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Counters: make(map[string]float64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timers:   make(map[string]TimerStats, len(m.timers)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.gauges {
		snap.Gauges[k] = v
	}
	for k, v := range m.timers {
		snap.Timers[k] = v
	}
	return snap
}

// CounterValue returns the current value of one counter series
func (m *Recorder) CounterValue(name string, labels map[string]string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, labels)]
}

// seriesKey renders name{k=v,...} with labels in sorted order so the same
// label set always maps to the same series.
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

var _ interfaces.Metrics = (*NoOpMetrics)(nil)
var _ interfaces.Metrics = (*Recorder)(nil)

// NewNoOpMetrics creates a new no-op metrics implementation
func NewNoOpMetrics() interfaces.Metrics {
	return &NoOpMetrics{}
}

// NewRecorder creates a new in-memory metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
		timers:   make(map[string]TimerStats),
	}
}

// NewTestMetrics creates a metrics implementation for testing
func NewTestMetrics() *Recorder {
	return NewRecorder()
}
