package metrics

import (
	"context"
	"sync"
	"time"
)

// Mock is an in-memory Provider for tests and dry runs.
// Unconfigured queries return DefaultValue, mirroring a healthy target.
type Mock struct {
	mu           sync.RWMutex
	values       map[string]float64
	absent       map[string]bool
	DefaultValue float64
}

func NewMock() *Mock {
	return &Mock{
		values:       make(map[string]float64),
		absent:       make(map[string]bool),
		DefaultValue: 100.0,
	}
}

// SetValue pins the instant value returned for a query
func (m *Mock) SetValue(query string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[query] = value
	delete(m.absent, query)
}

// MarkAbsent makes a query yield no sample
func (m *Mock) MarkAbsent(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absent[query] = true
	delete(m.values, query)
}

func (m *Mock) QueryInstant(_ context.Context, query string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.absent[query] {
		return 0, false, nil
	}
	if value, ok := m.values[query]; ok {
		return value, true, nil
	}
	return m.DefaultValue, true, nil
}

func (m *Mock) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]Sample, error) {
	value, found, err := m.QueryInstant(ctx, query)
	if err != nil || !found {
		return nil, err
	}
	var samples []Sample
	for ts := start; !ts.After(end); ts = ts.Add(step) {
		samples = append(samples, Sample{Timestamp: ts, Value: value})
	}
	return samples, nil
}
