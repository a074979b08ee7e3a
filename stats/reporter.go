// api/stats/reporter.go
package stats

import (
	"context"
	"log/slog"
	"time"

	"visitstats/api/cache"
	"visitstats/api/calendar"
	"visitstats/api/models"
)

// Reporter produces the statistics report for an anchor date.
type Reporter interface {
	ComputeStats(ctx context.Context, anchor time.Time) (*models.StatsReport, error)
}

var (
	_ Reporter = (*Aggregator)(nil)
	_ Reporter = (*CachedReporter)(nil)
)

// CachedReporter serves reports from a StatsCache keyed by week, falling back
// to the Aggregator on a miss. Cache failures are logged and never fail a
// request.
type CachedReporter struct {
	agg   *Aggregator
	cache cache.StatsCache
}

func NewCachedReporter(agg *Aggregator, c cache.StatsCache) *CachedReporter {
	return &CachedReporter{agg: agg, cache: c}
}

func (r *CachedReporter) ComputeStats(ctx context.Context, anchor time.Time) (*models.StatsReport, error) {
	weekStart, _ := calendar.WeekRange(anchor.In(r.agg.Location()))

	report, err := r.cache.Get(ctx, weekStart)
	if err != nil {
		slog.Warn("stats cache read failed, recomputing", "week", calendar.Label(weekStart), "error", err)
	} else if report != nil {
		slog.Debug("stats report served from cache", "week", calendar.Label(weekStart))
		return report, nil
	}
	return r.Refresh(ctx, anchor)
}

// Refresh recomputes the report for anchor's week and stores it in the cache.
func (r *CachedReporter) Refresh(ctx context.Context, anchor time.Time) (*models.StatsReport, error) {
	report, err := r.agg.ComputeStats(ctx, anchor)
	if err != nil {
		return nil, err
	}
	weekStart, _ := calendar.WeekRange(anchor.In(r.agg.Location()))
	if err := r.cache.Set(ctx, weekStart, report); err != nil {
		slog.Warn("failed to store stats report in cache", "week", calendar.Label(weekStart), "error", err)
	}
	return report, nil
}
