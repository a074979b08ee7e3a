// api/store/clickhouse_visit_store.go
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"visitstats/api/database"
	"visitstats/api/models"
)

const clickHouseSchema = `
	CREATE TABLE IF NOT EXISTS visits (
		id         UUID,
		page       String,
		country    LowCardinality(String),
		language   LowCardinality(String),
		browser    LowCardinality(String),
		dimensions String,
		referrer   String,
		visitorid  String,
		timestamp  DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY timestamp
`

const chSelectVisits = `
	SELECT id, page, country, language, browser, dimensions, referrer, visitorid, timestamp
	FROM visits`

// ClickHouseVisitStore keeps the visit log in a ClickHouse MergeTree table.
type ClickHouseVisitStore struct {
	DB *database.ClickHouseClient
}

var _ VisitStore = (*ClickHouseVisitStore)(nil)

func NewClickHouseVisitStore(chClient *database.ClickHouseClient) *ClickHouseVisitStore {
	return &ClickHouseVisitStore{
		DB: chClient,
	}
}

func (s *ClickHouseVisitStore) EnsureSchema(ctx context.Context) error {
	if err := s.DB.Conn.Exec(ctx, clickHouseSchema); err != nil {
		return fmt.Errorf("failed to create visits table: %w", err)
	}
	return nil
}

func (s *ClickHouseVisitStore) Append(ctx context.Context, e models.VisitEvent) error {
	return s.AppendBatch(ctx, []models.VisitEvent{e})
}

// AppendBatch inserts events in one native batch.
func (s *ClickHouseVisitStore) AppendBatch(ctx context.Context, events []models.VisitEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO visits (
			id, page, country, language, browser, dimensions, referrer, visitorid, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare batch insert: %w", ErrStoreWrite, err)
	}

	for _, e := range events {
		id := uuid.New()
		if e.ID != "" {
			if id, err = uuid.Parse(e.ID); err != nil {
				batch.Abort()
				return fmt.Errorf("%w: invalid visit id %q: %w", ErrStoreWrite, e.ID, err)
			}
		}
		if err := batch.Append(
			id,
			e.Page,
			e.Country,
			e.Language,
			e.Browser,
			e.Dimensions,
			e.Referrer,
			e.VisitorID,
			e.Timestamp.UTC(),
		); err != nil {
			batch.Abort()
			return fmt.Errorf("%w: failed to append visit %s to batch: %w", ErrStoreWrite, id, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("%w: failed to send batch: %w", ErrStoreWrite, err)
	}

	slog.Debug("visits inserted into ClickHouse", "count", len(events))
	return nil
}

// Acquire returns the store itself; the native driver pools connections per
// query, so there is nothing to pin or release.
func (s *ClickHouseVisitStore) Acquire(context.Context) (VisitReader, func() error, error) {
	return s, func() error { return nil }, nil
}

func (s *ClickHouseVisitStore) Ping(ctx context.Context) error {
	return s.DB.Conn.Ping(ctx)
}

func (s *ClickHouseVisitStore) CountAll(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT count() FROM visits`, "visits")
}

func (s *ClickHouseVisitStore) CountDistinctVisitors(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT uniqExact(visitorid) FROM visits`, "distinct visitors")
}

func (s *ClickHouseVisitStore) count(ctx context.Context, query, what string) (int64, error) {
	var n uint64
	if err := s.DB.Conn.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count %s: %w", ErrStoreRead, what, err)
	}
	return int64(n), nil
}

func (s *ClickHouseVisitStore) SelectInRange(ctx context.Context, start, end time.Time) ([]models.VisitEvent, error) {
	query := chSelectVisits + `
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`
	return s.selectVisits(ctx, query, start.UTC(), end.UTC())
}

func (s *ClickHouseVisitStore) SelectAll(ctx context.Context) ([]models.VisitEvent, error) {
	return s.selectVisits(ctx, chSelectVisits+`
		ORDER BY timestamp ASC`)
}

func (s *ClickHouseVisitStore) selectVisits(ctx context.Context, query string, args ...any) ([]models.VisitEvent, error) {
	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query visits: %w", ErrStoreRead, err)
	}
	defer rows.Close()

	results := []models.VisitEvent{}
	for rows.Next() {
		var (
			id uuid.UUID
			e  models.VisitEvent
		)
		if err := rows.Scan(
			&id,
			&e.Page,
			&e.Country,
			&e.Language,
			&e.Browser,
			&e.Dimensions,
			&e.Referrer,
			&e.VisitorID,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan visit row: %w", ErrStoreRead, err)
		}
		e.ID = id.String()
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating visit rows: %w", ErrStoreRead, err)
	}
	return results, nil
}

func (s *ClickHouseVisitStore) TopCountries(ctx context.Context, n int) ([]models.CountryCount, error) {
	if n <= 0 {
		return []models.CountryCount{}, nil
	}

	rows, err := s.DB.Conn.Query(ctx, `
		SELECT country, count() AS amount
		FROM visits
		GROUP BY country
		ORDER BY amount DESC, country ASC
		LIMIT ?
	`, uint64(n))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query top countries: %w", ErrStoreRead, err)
	}
	defer rows.Close()

	results := []models.CountryCount{}
	for rows.Next() {
		var (
			country string
			amount  uint64
		)
		if err := rows.Scan(&country, &amount); err != nil {
			return nil, fmt.Errorf("%w: failed to scan top country row: %w", ErrStoreRead, err)
		}
		results = append(results, models.CountryCount{Country: country, Amount: int64(amount)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows for top countries: %w", ErrStoreRead, err)
	}
	return results, nil
}
