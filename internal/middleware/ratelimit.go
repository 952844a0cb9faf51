package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/cache"
	"github.com/taskflow/taskflow/internal/metrics"
)

// Buckets is a shared token bucket store. *cache.Cache implements it.
type Buckets interface {
	CheckRateLimit(ctx context.Context, scope, subject string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// Buckets is optional. Without it, or when it fails, limits are
	// enforced per process.
	Buckets Buckets
	Enabled bool
}

// RateLimitRule is the limit applied to one group of routes.
type RateLimitRule struct {
	Scope     string
	PerMinute int
	Burst     int
}

// RateLimit returns middleware that limits requests per user, or per
// client IP for anonymous requests. A rule with PerMinute zero is unlimited.
func RateLimit(cfg RateLimitConfig, rule RateLimitRule) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if rule.Burst <= 0 {
		rule.Burst = rule.PerMinute
	}
	local := newLocalBuckets(rule)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || rule.PerMinute == 0 {
				next.ServeHTTP(w, r)
				return
			}

			subject := "ip:" + clientIP(r)
			if userID := auth.UserIDFromContext(r.Context()); userID != "" {
				subject = "user:" + userID
			}

			result := local.check(subject)
			if cfg.Buckets != nil {
				shared, err := cfg.Buckets.CheckRateLimit(r.Context(), rule.Scope, subject, rule.PerMinute, rule.Burst)
				if err != nil {
					cfg.Logger.ErrorContext(r.Context(), "rate limit check failed",
						slog.String("scope", rule.Scope),
						slog.String("error", err.Error()),
					)
				} else {
					result = shared
				}
			}

			setRateLimitHeaders(w, rule.PerMinute, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Metrics.IncRateLimited(rule.Scope)
				cfg.Logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("scope", rule.Scope),
					slog.String("subject", subject),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				retry := int(result.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, MsgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// localBuckets keeps one x/time/rate limiter per subject.
type localBuckets struct {
	rule    RateLimitRule
	mu      sync.Mutex
	clients map[string]*localClient
	sweep   time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const localIdle = 10 * time.Minute

func newLocalBuckets(rule RateLimitRule) *localBuckets {
	return &localBuckets{rule: rule, clients: make(map[string]*localClient), sweep: time.Now()}
}

func (b *localBuckets) check(subject string) *cache.RateLimitResult {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.sweep) > localIdle {
		for k, c := range b.clients {
			if now.Sub(c.lastSeen) > localIdle {
				delete(b.clients, k)
			}
		}
		b.sweep = now
	}

	c, ok := b.clients[subject]
	if !ok {
		perSecond := rate.Limit(float64(b.rule.PerMinute) / 60)
		c = &localClient{limiter: rate.NewLimiter(perSecond, b.rule.Burst)}
		b.clients[subject] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return &cache.RateLimitResult{
			Allowed:    false,
			ResetAt:    now.Add(delay),
			RetryAfter: delay,
		}
	}
	return &cache.RateLimitResult{
		Allowed:   true,
		Remaining: int64(c.limiter.TokensAt(now)),
		ResetAt:   now.Add(time.Minute),
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// clientIP extracts the client IP from RemoteAddr. Proxy headers are
// only honoured through chi's RealIP middleware, which is mounted when
// the deployment sits behind a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
