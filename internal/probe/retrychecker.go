package probe

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// BackoffStep is the unit of the linear backoff between attempts.
const BackoffStep = 200 * time.Millisecond

// LinearBackoff waits BackoffStep*(attempt+1) after the zero-based attempt failed.
func LinearBackoff(attempt int) time.Duration {
	return BackoffStep * time.Duration(attempt+1)
}

// RetryChecker runs Inner up to MaxRetries+1 times and folds the attempts
// into a single CheckResult.
type RetryChecker struct {
	Inner      Checker
	MaxRetries int
	Backoff    func(attempt int) time.Duration
	Logger     *zap.Logger

	now func() time.Time
}

func NewRetryChecker(inner Checker, maxRetries int, logger *zap.Logger) *RetryChecker {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryChecker{
		Inner:      inner,
		MaxRetries: maxRetries,
		Backoff:    LinearBackoff,
		Logger:     logger,
	}
}

// Check returns on the first successful attempt. When every attempt fails
// only the last reason is kept and the elapsed time is reported as zero.
func (r *RetryChecker) Check(ctx context.Context, target string) domain.CheckResult {
	backoff := r.Backoff
	if backoff == nil {
		backoff = LinearBackoff
	}
	now := r.now
	if now == nil {
		now = time.Now
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var last error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		out, err := r.Inner.Check(ctx, target)
		if err == nil {
			return domain.Succeeded(target, out.StatusCode, out.Elapsed, now())
		}
		last = err
		log.Debug("check_failed_attempt",
			zap.String("url", target),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == r.MaxRetries {
			break
		}
		if !sleep(ctx, backoff(attempt)) {
			break
		}
	}

	reason := "unknown error"
	if last != nil {
		reason = last.Error()
	}
	return domain.Failed(target, reason, now())
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
