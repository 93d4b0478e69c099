package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema is applied by Migrate. Safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS results (
  id          BIGSERIAL PRIMARY KEY,
  url         TEXT NOT NULL,
  up          BOOLEAN NOT NULL,
  http_status INTEGER NULL,
  elapsed_ms  BIGINT NOT NULL,
  reason      TEXT NOT NULL,
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_url_time ON results (url, checked_at DESC);

CREATE TABLE IF NOT EXISTS alert_state (
  url          TEXT PRIMARY KEY,
  up           BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL,
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool. It never fails; the error keeps it usable as io.Closer.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, r domain.CheckResult) error {
	var statusPtr *int
	if r.Success {
		statusPtr = &r.StatusCode
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results
		   (url, up, http_status, elapsed_ms, reason, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6)`,
		r.URL, r.Success, statusPtr, r.ElapsedMS(), r.Reason, r.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (url)
       url,
       up,
       http_status,
       elapsed_ms,
       reason,
       checked_at
  FROM results
 ORDER BY url, checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckResult
	for rows.Next() {
		var (
			url       string
			up        bool
			httpNull  sql.NullInt32
			elapsedMS int64
			reason    string
			checkedAt time.Time
		)
		if err := rows.Scan(&url, &up, &httpNull, &elapsedMS, &reason, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		r := domain.CheckResult{
			URL:        url,
			Success:    up,
			Reason:     reason,
			Elapsed:    time.Duration(elapsedMS) * time.Millisecond,
			ObservedAt: checkedAt.UTC(),
		}
		if httpNull.Valid {
			r.StatusCode = int(httpNull.Int32)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
