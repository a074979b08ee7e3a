// api/stats/aggregator.go
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"visitstats/api/calendar"
	"visitstats/api/models"
	"visitstats/api/store"
)

// ErrAggregation is returned when any query behind a report fails. No partial
// report accompanies it.
var ErrAggregation = errors.New("stats aggregation failed")

const DefaultTopCountries = 3

// Aggregator composes the statistics report from the visit store.
type Aggregator struct {
	store store.VisitStore
	loc   *time.Location
	topN  int
}

func NewAggregator(s store.VisitStore, loc *time.Location, topN int) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	if topN <= 0 {
		topN = DefaultTopCountries
	}
	return &Aggregator{store: s, loc: loc, topN: topN}
}

// Location is the calendar used for week bucketing.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// ComputeStats builds the report for the calendar week containing anchor.
// All reads run on one acquired store session, released on every path.
func (a *Aggregator) ComputeStats(ctx context.Context, anchor time.Time) (*models.StatsReport, error) {
	anchor = anchor.In(a.loc)

	reader, release, err := a.store.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAggregation, err)
	}
	defer func() {
		if relErr := release(); relErr != nil {
			slog.Warn("failed to release store session", "error", relErr)
		}
	}()

	totalVisits, err := reader.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: total visits: %w", ErrAggregation, err)
	}

	uniqueVisits, err := reader.CountDistinctVisitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: unique visitors: %w", ErrAggregation, err)
	}

	start, end := calendar.WeekRange(anchor)
	events, err := reader.SelectInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: visits for week of %s: %w", ErrAggregation, calendar.Label(start), err)
	}

	topCountries, err := reader.TopCountries(ctx, a.topN)
	if err != nil {
		return nil, fmt.Errorf("%w: top countries: %w", ErrAggregation, err)
	}
	if topCountries == nil {
		topCountries = []models.CountryCount{}
	}

	return &models.StatsReport{
		TotalVisits:         totalVisits,
		TotalUniqueVisits:   uniqueVisits,
		TotalVisitsThisWeek: int64(len(events)),
		VisitsThisWeek:      BucketByDay(calendar.WeekOf(anchor), events, a.loc),
		TopCountries:        topCountries,
	}, nil
}

// BucketByDay counts, for each day, the events whose timestamp falls on that
// calendar date in loc.
func BucketByDay(days []time.Time, events []models.VisitEvent, loc *time.Location) []models.DailyVisits {
	return lo.Map(days, func(day time.Time, _ int) models.DailyVisits {
		amount := lo.CountBy(events, func(e models.VisitEvent) bool {
			return calendar.SameDay(day, e.Timestamp, loc)
		})
		return models.DailyVisits{
			Date:   calendar.Label(day),
			Day:    day,
			Amount: int64(amount),
		}
	})
}
