package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/sitecheck/internal/repo"
)

const (
	selectAlertState = `SELECT url, up, last_sent_at FROM alert_state WHERE url = $1`

	// A zero sentAt arrives as NULL and clears last_sent_at.
	upsertAlertState = `
INSERT INTO alert_state (url, up, last_sent_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (url) DO UPDATE
SET up = EXCLUDED.up, last_sent_at = EXCLUDED.last_sent_at, updated_at = now()`
)

// Get returns nil, nil for a URL never seen by the alerter.
func (s *Store) Get(ctx context.Context, url string) (*repo.AlertRecord, error) {
	rows, err := s.pool.Query(ctx, selectAlertState, url)
	if err != nil {
		return nil, fmt.Errorf("query alert state: %w", err)
	}
	rec, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (repo.AlertRecord, error) {
		var r repo.AlertRecord
		err := row.Scan(&r.URL, &r.LastState, &r.LastSentAt)
		return r, err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert state: %w", err)
	}
	return &rec, nil
}

func (s *Store) Set(ctx context.Context, url string, up bool, sentAt time.Time) error {
	var sent *time.Time
	if !sentAt.IsZero() {
		t := sentAt.UTC()
		sent = &t
	}
	if _, err := s.pool.Exec(ctx, upsertAlertState, url, up, sent); err != nil {
		return fmt.Errorf("upsert alert state %s: %w", url, err)
	}
	return nil
}
