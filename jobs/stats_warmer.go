// api/jobs/stats_warmer.go
package jobs

import (
	"context"
	"log/slog"
	"time"

	"visitstats/api/models"
)

// Refresher recomputes and caches the report for anchor's week.
type Refresher interface {
	Refresh(ctx context.Context, anchor time.Time) (*models.StatsReport, error)
}

// StatsWarmer keeps the current week's report warm in the stats cache so the
// dashboard rarely pays for a full aggregation.
type StatsWarmer struct {
	refresher Refresher
	timeout   time.Duration
	now       func() time.Time
}

func NewStatsWarmer(r Refresher, timeout time.Duration) *StatsWarmer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StatsWarmer{refresher: r, timeout: timeout, now: time.Now}
}

func (w *StatsWarmer) Name() string { return "StatsWarmer" }

func (w *StatsWarmer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	report, err := w.refresher.Refresh(ctx, w.now())
	if err != nil {
		slog.Warn("failed to warm stats cache", "error", err)
		return
	}
	slog.Debug("stats cache warmed", "total_visits", report.TotalVisits, "week_visits", report.TotalVisitsThisWeek)
}
