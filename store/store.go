// api/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"visitstats/api/models"
)

var (
	// ErrStoreWrite marks a failed insert. It is never retried here.
	ErrStoreWrite = errors.New("visit store write failed")
	// ErrStoreRead marks a failed read query.
	ErrStoreRead = errors.New("visit store read failed")
)

// VisitReader is the read side of the visit log. All methods are safe to
// call concurrently with each other and with appends.
type VisitReader interface {
	CountAll(ctx context.Context) (int64, error)
	// CountDistinctVisitors counts distinct visitor ids, "Unknown" included.
	CountDistinctVisitors(ctx context.Context) (int64, error)
	// SelectInRange returns events with start <= timestamp < end, oldest first.
	SelectInRange(ctx context.Context, start, end time.Time) ([]models.VisitEvent, error)
	SelectAll(ctx context.Context) ([]models.VisitEvent, error)
	// TopCountries returns at most n countries by visit count, ties broken by
	// country name ascending.
	TopCountries(ctx context.Context, n int) ([]models.CountryCount, error)
}

// VisitStore is the append-only visit log.
type VisitStore interface {
	VisitReader
	Append(ctx context.Context, event models.VisitEvent) error
	// Acquire checks out a reader bound to a single backend session. The
	// returned release func must be called exactly once.
	Acquire(ctx context.Context) (VisitReader, func() error, error)
	Ping(ctx context.Context) error
}
