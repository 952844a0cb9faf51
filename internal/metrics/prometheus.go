package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskflow"

// PrometheusRecorder exports the Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	mutations          *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	habitCompletions   *prometheus.CounterVec
	auth               *prometheus.CounterVec
	rateLimited        *prometheus.CounterVec
	analyticsCache     *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "mutations_total", Help: "Committed resource mutations by resource and operation."},
			[]string{"resource", "op"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "validation_failures_total", Help: "Rejected request payloads by resource."},
			[]string{"resource"},
		),
		habitCompletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "habit_completions_total", Help: "Habit completion attempts by outcome."},
			[]string{"outcome"},
		),
		auth: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "auth_attempts_total", Help: "Signup and login attempts by outcome."},
			[]string{"event", "outcome"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter."},
			[]string{"limiter"},
		),
		analyticsCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "analytics_cache_lookups_total", Help: "Analytics cache lookups by result."},
			[]string{"result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
			[]string{"method", "status"},
		),
	}
	p.RegisterCollectors(reg)
	return p
}

// RegisterCollectors registers every collector with reg.
func (p *PrometheusRecorder) RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(p.mutations)
	reg.MustRegister(p.validationFailures)
	reg.MustRegister(p.habitCompletions)
	reg.MustRegister(p.auth)
	reg.MustRegister(p.rateLimited)
	reg.MustRegister(p.analyticsCache)
	reg.MustRegister(p.requestDuration)
}

func (p *PrometheusRecorder) IncMutation(resource, op string) {
	p.mutations.WithLabelValues(resource, op).Inc()
}

func (p *PrometheusRecorder) IncValidationFailure(resource string) {
	p.validationFailures.WithLabelValues(resource).Inc()
}

func (p *PrometheusRecorder) IncHabitCompletion(outcome string) {
	p.habitCompletions.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncAuth(event, outcome string) {
	p.auth.WithLabelValues(event, outcome).Inc()
}

func (p *PrometheusRecorder) IncRateLimited(limiter string) {
	p.rateLimited.WithLabelValues(limiter).Inc()
}

func (p *PrometheusRecorder) IncAnalyticsCacheHit() {
	p.analyticsCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncAnalyticsCacheMiss() {
	p.analyticsCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) ObserveRequestDuration(method string, status int, duration time.Duration) {
	p.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}
