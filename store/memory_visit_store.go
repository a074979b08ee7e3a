// api/store/memory_visit_store.go
package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"visitstats/api/models"
)

// MemoryVisitStore keeps the visit log in process memory. It backs local
// development runs and tests; contents are lost on restart.
type MemoryVisitStore struct {
	mu     sync.RWMutex
	events []models.VisitEvent
}

var _ VisitStore = (*MemoryVisitStore)(nil)

func NewMemoryVisitStore() *MemoryVisitStore {
	return &MemoryVisitStore{}
}

func (s *MemoryVisitStore) Append(_ context.Context, e models.VisitEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *MemoryVisitStore) Acquire(context.Context) (VisitReader, func() error, error) {
	return s, func() error { return nil }, nil
}

func (s *MemoryVisitStore) Ping(context.Context) error { return nil }

func (s *MemoryVisitStore) CountAll(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events)), nil
}

func (s *MemoryVisitStore) CountDistinctVisitors(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := lo.Uniq(lo.Map(s.events, func(e models.VisitEvent, _ int) string { return e.VisitorID }))
	return int64(len(ids)), nil
}

func (s *MemoryVisitStore) SelectInRange(_ context.Context, start, end time.Time) ([]models.VisitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByTime(lo.Filter(s.events, func(e models.VisitEvent, _ int) bool {
		return !e.Timestamp.Before(start) && e.Timestamp.Before(end)
	})), nil
}

func (s *MemoryVisitStore) SelectAll(context.Context) ([]models.VisitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByTime(slices.Clone(s.events)), nil
}

func (s *MemoryVisitStore) TopCountries(_ context.Context, n int) ([]models.CountryCount, error) {
	if n <= 0 {
		return []models.CountryCount{}, nil
	}

	s.mu.RLock()
	counts := lo.CountValuesBy(s.events, func(e models.VisitEvent) string { return e.Country })
	s.mu.RUnlock()

	top := lo.MapToSlice(counts, func(country string, amount int) models.CountryCount {
		return models.CountryCount{Country: country, Amount: int64(amount)}
	})
	slices.SortFunc(top, func(a, b models.CountryCount) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Country, b.Country)
	})
	if len(top) > n {
		top = top[:n]
	}
	return top, nil
}

func sortedByTime(events []models.VisitEvent) []models.VisitEvent {
	if events == nil {
		return []models.VisitEvent{}
	}
	slices.SortStableFunc(events, func(a, b models.VisitEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return events
}
