package repo

import (
	"context"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// ResultStore keeps the history of final check results. Swap in any DB
// adapter; memory and postgres ship with the binary.
type ResultStore interface {
	Append(ctx context.Context, r domain.CheckResult) error
	// Latest returns the most recent result per URL.
	Latest(ctx context.Context) ([]domain.CheckResult, error)
}
