package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitstats/api/models"
)

func visit(page, country, visitor string, ts time.Time) models.VisitEvent {
	return models.VisitEvent{
		Page: page, Country: country, VisitorID: visitor, Timestamp: ts,
		Language: models.Unknown, Browser: models.Unknown, Referrer: models.Unknown, Dimensions: models.Unknown,
	}
}

func TestMemoryVisitStore_CountsAndTopCountries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVisitStore()
	now := time.Now()
	require.NoError(t, s.Append(ctx, visit("/a", "US", "v1", now)))
	require.NoError(t, s.Append(ctx, visit("/b", "US", "v2", now)))
	require.NoError(t, s.Append(ctx, visit("/c", "FR", "v3", now)))

	total, _ := s.CountAll(ctx)
	unique, _ := s.CountDistinctVisitors(ctx)
	top, err := s.TopCountries(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(3), unique)
	assert.Equal(t, []models.CountryCount{{Country: "US", Amount: 2}, {Country: "FR", Amount: 1}}, top)
}

func TestMemoryVisitStore_TopCountries_TieBreakIsLexical(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVisitStore()
	for _, c := range []string{"NL", "DE", "BR", "DE", "NL", "BR"} {
		require.NoError(t, s.Append(ctx, visit("/", c, c, time.Now())))
	}

	top, err := s.TopCountries(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, []models.CountryCount{{Country: "BR", Amount: 2}, {Country: "DE", Amount: 2}}, top)
}

func TestMemoryVisitStore_SelectInRange_HalfOpen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVisitStore()
	start := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	require.NoError(t, s.Append(ctx, visit("/late", "US", "v", end.Add(-time.Nanosecond))))
	require.NoError(t, s.Append(ctx, visit("/start", "US", "v", start)))
	require.NoError(t, s.Append(ctx, visit("/end", "US", "v", end)))
	require.NoError(t, s.Append(ctx, visit("/before", "US", "v", start.Add(-time.Second))))

	events, err := s.SelectInRange(ctx, start, end)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "/start", events[0].Page)
	assert.Equal(t, "/late", events[1].Page)
}

func TestMemoryVisitStore_AppendAssignsID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVisitStore()
	require.NoError(t, s.Append(ctx, visit("/", "US", "v", time.Now())))

	all, err := s.SelectAll(ctx)

	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotEmpty(t, all[0].ID)
}

func TestMemoryVisitStore_ConcurrentAppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVisitStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, visit("/", "US", "v", time.Now()))
		}()
		go func() {
			defer wg.Done()
			total, _ := s.CountAll(ctx)
			unique, _ := s.CountDistinctVisitors(ctx)
			assert.LessOrEqual(t, unique, total)
		}()
	}
	wg.Wait()

	total, _ := s.CountAll(ctx)
	assert.Equal(t, int64(50), total)
}
