package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters. Labelled counters are
// keyed by their labels joined with ".", e.g. "task.create".
type Snapshot struct {
	Mutations          map[string]uint64
	ValidationFailures map[string]uint64
	HabitCompletions   map[string]uint64
	Auth               map[string]uint64
	RateLimited        map[string]uint64
	AnalyticsCacheHits uint64
	AnalyticsCacheMiss uint64
	Requests           uint64
	RequestTotalNs     int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu       sync.Mutex
	counters map[string]map[string]uint64

	cacheHits      uint64
	cacheMisses    uint64
	requests       uint64
	requestTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{counters: make(map[string]map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Mutations:          m.copyOf("mutation"),
		ValidationFailures: m.copyOf("validation"),
		HabitCompletions:   m.copyOf("habit"),
		Auth:               m.copyOf("auth"),
		RateLimited:        m.copyOf("ratelimit"),
		AnalyticsCacheHits: atomic.LoadUint64(&m.cacheHits),
		AnalyticsCacheMiss: atomic.LoadUint64(&m.cacheMisses),
		Requests:           atomic.LoadUint64(&m.requests),
		RequestTotalNs:     atomic.LoadInt64(&m.requestTotalNs),
	}
}

func (m *InMemoryRecorder) copyOf(family string) map[string]uint64 {
	out := maps.Clone(m.counters[family])
	if out == nil {
		out = make(map[string]uint64)
	}
	return out
}

func (m *InMemoryRecorder) inc(family, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counters[family] == nil {
		m.counters[family] = make(map[string]uint64)
	}
	m.counters[family][key]++
}

// IncMutation counts a committed create, edit or delete.
func (m *InMemoryRecorder) IncMutation(resource, op string) {
	m.inc("mutation", resource+"."+op)
}

// IncValidationFailure counts a rejected payload.
func (m *InMemoryRecorder) IncValidationFailure(resource string) {
	m.inc("validation", resource)
}

// IncHabitCompletion counts completion attempts by outcome.
func (m *InMemoryRecorder) IncHabitCompletion(outcome string) {
	m.inc("habit", outcome)
}

// IncAuth counts signup and login attempts.
func (m *InMemoryRecorder) IncAuth(event, outcome string) {
	m.inc("auth", event+"."+outcome)
}

// IncRateLimited counts throttled requests per limiter.
func (m *InMemoryRecorder) IncRateLimited(limiter string) {
	m.inc("ratelimit", limiter)
}

// IncAnalyticsCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncAnalyticsCacheHit() {
	atomic.AddUint64(&m.cacheHits, 1)
}

// IncAnalyticsCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncAnalyticsCacheMiss() {
	atomic.AddUint64(&m.cacheMisses, 1)
}

// ObserveRequestDuration records request duration.
func (m *InMemoryRecorder) ObserveRequestDuration(method string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
	atomic.AddInt64(&m.requestTotalNs, duration.Nanoseconds())
}
