package session

import "sync"

// Metrics tracks control plane request counters.
type Metrics struct {
	mu       sync.Mutex
	requests int64
	errors   int64
}

func (m *Metrics) RecordRequest() {
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()
}

func (m *Metrics) RecordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// Snapshot returns the current request and error counts.
func (m *Metrics) Snapshot() (requests, errors int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests, m.errors
}
