package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last UP/DOWN state seen for a URL and the last time
// a notification went out for it (used for cooldown).
type AlertRecord struct {
	URL        string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, url string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the previous send time is cleared.
	Set(ctx context.Context, url string, lastState bool, sentAt time.Time) error
}
