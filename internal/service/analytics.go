package service

import (
	"context"
	"errors"

	"github.com/taskflow/taskflow/internal/cache"
)

// Analytics kinds, also used as cache keys.
const (
	AnalyticsTasks        = "tasks"
	AnalyticsHabits       = "habits"
	AnalyticsTransactions = "transactions"
)

// cachedAnalytics serves kind from the cache when possible and fills it
// after computing otherwise. Cache failures only cost a recomputation.
func cachedAnalytics[T any](ctx context.Context, d Deps, ownerID, kind string, compute func(context.Context) (*T, error)) (*T, error) {
	if d.Cache == nil {
		return compute(ctx)
	}

	var cached T
	err := d.Cache.GetAnalytics(ctx, ownerID, kind, &cached)
	if err == nil {
		d.Metrics.IncAnalyticsCacheHit()
		return &cached, nil
	}
	d.Metrics.IncAnalyticsCacheMiss()
	if !errors.Is(err, cache.ErrCacheMiss) {
		d.Logger.WarnContext(ctx, "analytics cache read failed", "kind", kind, "error", err)
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.Cache.SetAnalytics(ctx, ownerID, kind, result, d.AnalyticsTTL); err != nil {
		d.Logger.WarnContext(ctx, "analytics cache write failed", "kind", kind, "error", err)
	}
	return result, nil
}

// tally counts values by name with every option present.
func tally[V ~string](options []string, values []V) map[string]int {
	out := make(map[string]int, len(options))
	for _, o := range options {
		out[o] = 0
	}
	for _, v := range values {
		out[string(v)]++
	}
	return out
}
