package scheduler

import (
	"context"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/repo"
	"github.com/hamed0406/sitecheck/internal/stats"
)

// StoreSink appends every result to a ResultStore.
type StoreSink struct {
	Store repo.ResultStore
}

func (s StoreSink) Emit(ctx context.Context, r domain.CheckResult) error {
	return s.Store.Append(ctx, r)
}

// ResultFunc adapts a function to ResultSink.
type ResultFunc func(ctx context.Context, r domain.CheckResult) error

func (f ResultFunc) Emit(ctx context.Context, r domain.CheckResult) error { return f(ctx, r) }

// SummaryFunc adapts a function to SummarySink.
type SummaryFunc func(ctx context.Context, round int, entries []stats.Entry) error

func (f SummaryFunc) Summary(ctx context.Context, round int, entries []stats.Entry) error {
	return f(ctx, round, entries)
}
