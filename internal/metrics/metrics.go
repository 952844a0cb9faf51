// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Mutation operations reported by IncMutation.
const (
	OpCreate = "create"
	OpEdit   = "edit"
	OpDelete = "delete"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Resource pipeline metrics
	IncMutation(resource, op string)
	IncValidationFailure(resource string)
	IncHabitCompletion(outcome string) // outcome: "completed" or "duplicate"

	// Auth metrics
	IncAuth(event, outcome string) // event: "signup", "login"; outcome: "success", "failure"
	IncRateLimited(limiter string)

	// Analytics cache metrics
	IncAnalyticsCacheHit()
	IncAnalyticsCacheMiss()

	ObserveRequestDuration(method string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
