// api/store/postgres_visit_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"visitstats/api/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS visits (
	id         UUID PRIMARY KEY,
	page       TEXT NOT NULL DEFAULT 'Unknown',
	country    TEXT NOT NULL DEFAULT 'Unknown',
	language   TEXT NOT NULL DEFAULT 'Unknown',
	browser    TEXT NOT NULL DEFAULT 'Unknown',
	dimensions TEXT NOT NULL DEFAULT 'Unknown',
	referrer   TEXT NOT NULL DEFAULT 'Unknown',
	visitorid  TEXT NOT NULL DEFAULT 'Unknown',
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits (timestamp);
`

const (
	pgInsertVisit = `
		INSERT INTO visits (id, page, country, language, browser, dimensions, referrer, visitorid, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	pgSelectVisits = `
		SELECT id, page, country, language, browser, dimensions, referrer, visitorid, timestamp
		FROM visits`
	pgCountAll             = `SELECT COUNT(*) FROM visits`
	pgCountDistinctVisitor = `SELECT COUNT(DISTINCT visitorid) FROM visits`
	pgTopCountries         = `
		SELECT country, COUNT(*) AS amount
		FROM visits
		GROUP BY country
		ORDER BY amount DESC, country ASC
		LIMIT $1`
)

// queryer is satisfied by both *sql.DB and *sql.Conn.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresVisitStore keeps the visit log in a single Postgres table.
type PostgresVisitStore struct {
	*pgReader
	db *sql.DB
}

var _ VisitStore = (*PostgresVisitStore)(nil)

func NewPostgresVisitStore(db *sql.DB) *PostgresVisitStore {
	return &PostgresVisitStore{
		pgReader: &pgReader{q: db},
		db:       db,
	}
}

// EnsureSchema creates the visits table and its timestamp index.
func (s *PostgresVisitStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create visits schema: %w", err)
	}
	return nil
}

func (s *PostgresVisitStore) Append(ctx context.Context, e models.VisitEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, pgInsertVisit,
		e.ID,
		e.Page,
		e.Country,
		e.Language,
		e.Browser,
		e.Dimensions,
		e.Referrer,
		e.VisitorID,
		e.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert visit %s: %w", ErrStoreWrite, e.ID, err)
	}
	slog.Debug("visit inserted", "id", e.ID, "page", e.Page)
	return nil
}

// Acquire pins one pooled connection; release hands it back to the pool.
func (s *PostgresVisitStore) Acquire(ctx context.Context) (VisitReader, func() error, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to acquire connection: %w", ErrStoreRead, err)
	}
	return &pgReader{q: conn}, conn.Close, nil
}

func (s *PostgresVisitStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type pgReader struct {
	q queryer
}

func (r *pgReader) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, pgCountAll, "visits")
}

func (r *pgReader) CountDistinctVisitors(ctx context.Context) (int64, error) {
	return r.count(ctx, pgCountDistinctVisitor, "distinct visitors")
}

func (r *pgReader) count(ctx context.Context, query, what string) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count %s: %w", ErrStoreRead, what, err)
	}
	return n, nil
}

func (r *pgReader) SelectInRange(ctx context.Context, start, end time.Time) ([]models.VisitEvent, error) {
	query := pgSelectVisits + `
		WHERE timestamp >= $1 AND timestamp < $2
		ORDER BY timestamp ASC`
	return r.selectVisits(ctx, query, start.UTC(), end.UTC())
}

func (r *pgReader) SelectAll(ctx context.Context) ([]models.VisitEvent, error) {
	return r.selectVisits(ctx, pgSelectVisits+`
		ORDER BY timestamp ASC`)
}

func (r *pgReader) selectVisits(ctx context.Context, query string, args ...any) ([]models.VisitEvent, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query visits: %w", ErrStoreRead, err)
	}
	defer rows.Close()

	results := []models.VisitEvent{}
	for rows.Next() {
		var e models.VisitEvent
		if err := rows.Scan(
			&e.ID,
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
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row error during visits query: %w", ErrStoreRead, err)
	}
	return results, nil
}

func (r *pgReader) TopCountries(ctx context.Context, n int) ([]models.CountryCount, error) {
	if n <= 0 {
		return []models.CountryCount{}, nil
	}

	rows, err := r.q.QueryContext(ctx, pgTopCountries, n)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query top countries: %w", ErrStoreRead, err)
	}
	defer rows.Close()

	results := []models.CountryCount{}
	for rows.Next() {
		var c models.CountryCount
		if err := rows.Scan(&c.Country, &c.Amount); err != nil {
			return nil, fmt.Errorf("%w: failed to scan top country row: %w", ErrStoreRead, err)
		}
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows for top countries: %w", ErrStoreRead, err)
	}
	return results, nil
}
