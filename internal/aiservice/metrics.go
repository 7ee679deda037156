package aiservice

import (
	"strings"
	"sync"
	"time"
)

// RequestMetric accumulates per-endpoint call statistics. Counters are
// append-only and reset only when the process restarts.
type RequestMetric struct {
	Total          int64
	Success        int64
	Failure        int64
	TotalLatencyMs int64
	MaxLatencyMs   int64
	LastError      string
}

// Collector aggregates request metrics keyed by endpoint path with any
// leading separator stripped. A disabled collector records nothing.
type Collector struct {
	mu      sync.Mutex
	enabled bool
	byPath  map[string]*RequestMetric
}

// NewCollector creates a metrics collector.
func NewCollector(enabled bool) *Collector {
	return &Collector{
		enabled: enabled,
		byPath:  make(map[string]*RequestMetric),
	}
}

// Record registers one attempt against the endpoint.
func (c *Collector) Record(path string, latency time.Duration, err error) {
	if c == nil || !c.enabled {
		return
	}

	key := strings.TrimPrefix(path, "/")

	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.byPath[key]
	if !ok {
		m = &RequestMetric{}
		c.byPath[key] = m
	}

	ms := latency.Milliseconds()

	m.Total++
	m.TotalLatencyMs += ms
	if ms > m.MaxLatencyMs {
		m.MaxLatencyMs = ms
	}

	if err != nil {
		m.Failure++
		m.LastError = err.Error()
		return
	}
	m.Success++
}

// Snapshot returns a copy of the collected metrics.
func (c *Collector) Snapshot() map[string]RequestMetric {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]RequestMetric, len(c.byPath))
	for path, m := range c.byPath {
		out[path] = *m
	}
	return out
}
