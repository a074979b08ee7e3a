package store

import (
	"context"
	"time"

	"visitstats/api/models"
)

// MockVisitStore is a test mock for VisitStore. Unset funcs panic.
type MockVisitStore struct {
	AppendFunc                func(ctx context.Context, event models.VisitEvent) error
	AcquireFunc               func(ctx context.Context) (VisitReader, func() error, error)
	PingFunc                  func(ctx context.Context) error
	CountAllFunc              func(ctx context.Context) (int64, error)
	CountDistinctVisitorsFunc func(ctx context.Context) (int64, error)
	SelectInRangeFunc         func(ctx context.Context, start, end time.Time) ([]models.VisitEvent, error)
	SelectAllFunc             func(ctx context.Context) ([]models.VisitEvent, error)
	TopCountriesFunc          func(ctx context.Context, n int) ([]models.CountryCount, error)
}

var _ VisitStore = (*MockVisitStore)(nil)

func (m *MockVisitStore) Append(ctx context.Context, event models.VisitEvent) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, event)
	}
	panic("MockVisitStore.AppendFunc not set")
}

// Acquire falls back to returning the mock itself with a no-op release.
func (m *MockVisitStore) Acquire(ctx context.Context) (VisitReader, func() error, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx)
	}
	return m, func() error { return nil }, nil
}

func (m *MockVisitStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	panic("MockVisitStore.PingFunc not set")
}

func (m *MockVisitStore) CountAll(ctx context.Context) (int64, error) {
	if m.CountAllFunc != nil {
		return m.CountAllFunc(ctx)
	}
	panic("MockVisitStore.CountAllFunc not set")
}

func (m *MockVisitStore) CountDistinctVisitors(ctx context.Context) (int64, error) {
	if m.CountDistinctVisitorsFunc != nil {
		return m.CountDistinctVisitorsFunc(ctx)
	}
	panic("MockVisitStore.CountDistinctVisitorsFunc not set")
}

func (m *MockVisitStore) SelectInRange(ctx context.Context, start, end time.Time) ([]models.VisitEvent, error) {
	if m.SelectInRangeFunc != nil {
		return m.SelectInRangeFunc(ctx, start, end)
	}
	panic("MockVisitStore.SelectInRangeFunc not set")
}

func (m *MockVisitStore) SelectAll(ctx context.Context) ([]models.VisitEvent, error) {
	if m.SelectAllFunc != nil {
		return m.SelectAllFunc(ctx)
	}
	panic("MockVisitStore.SelectAllFunc not set")
}

func (m *MockVisitStore) TopCountries(ctx context.Context, n int) ([]models.CountryCount, error) {
	if m.TopCountriesFunc != nil {
		return m.TopCountriesFunc(ctx, n)
	}
	panic("MockVisitStore.TopCountriesFunc not set")
}
