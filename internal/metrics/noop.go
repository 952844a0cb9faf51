package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncMutation(resource, op string) {}

func (n *NoopRecorder) IncValidationFailure(resource string) {}

func (n *NoopRecorder) IncHabitCompletion(outcome string) {}

func (n *NoopRecorder) IncAuth(event, outcome string) {}

func (n *NoopRecorder) IncRateLimited(limiter string) {}

func (n *NoopRecorder) IncAnalyticsCacheHit() {}

func (n *NoopRecorder) IncAnalyticsCacheMiss() {}

func (n *NoopRecorder) ObserveRequestDuration(method string, status int, duration time.Duration) {}
