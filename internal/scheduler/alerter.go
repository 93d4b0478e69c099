package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/notify"
	"github.com/hamed0406/sitecheck/internal/probe"
	"github.com/hamed0406/sitecheck/internal/repo"
)

// DefaultDiagnoseTimeout caps the DNS lookup attached to a DOWN alert; it
// runs on the scheduler goroutine.
const DefaultDiagnoseTimeout = time.Second

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter notifies when a URL flips between UP and DOWN. It is a
// ResultSink, so it sees results in the order the scheduler collects them.
type Alerter struct {
	logger   *zap.Logger
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig

	// Diagnose explains DOWN alerts; nil skips the DNS line.
	Diagnose        func(ctx context.Context, url string) probe.DNSStatus
	DiagnoseTimeout time.Duration
	now             func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		logger:   logger,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		Diagnose: func(ctx context.Context, url string) probe.DNSStatus {
			return probe.Diagnose(ctx, nil, url)
		},
		DiagnoseTimeout: DefaultDiagnoseTimeout,
		now:             time.Now,
	}
}

func (a *Alerter) Emit(ctx context.Context, r domain.CheckResult) error {
	rec, err := a.alertDB.Get(ctx, r.URL)
	if err != nil {
		return fmt.Errorf("alert state: %w", err)
	}
	now := a.now()

	// Has the up/down state changed compared to what we last recorded?
	stateChanged := rec == nil || rec.LastState != r.Success

	// Cooldown only matters for DOWN alerts (suppresses noisy repeats).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	downAlert := stateChanged && !r.Success && cooled
	// A URL that was never seen DOWN has nothing to recover from.
	recoveryAlert := rec != nil && stateChanged && r.Success && a.cfg.AlertOnRecovery

	if !downAlert && !recoveryAlert {
		// Record a new state even when nothing was sent (DOWN within
		// cooldown, recovery alerts disabled, first UP).
		if stateChanged {
			var keep time.Time
			if rec != nil && rec.LastSentAt != nil {
				keep = *rec.LastSentAt
			}
			return a.alertDB.Set(ctx, r.URL, r.Success, keep)
		}
		return nil
	}

	title := "🔴 Target DOWN"
	if r.Success {
		title = "🟢 Target RECOVERED"
	}
	text := a.describe(ctx, r)

	if err := a.notifier.Send(ctx, title, text); err != nil {
		a.logger.Warn("alert_send_failed", zap.String("url", r.URL), zap.Error(err))
	} else {
		a.logger.Info("alert_sent", zap.String("url", r.URL), zap.Bool("up", r.Success))
	}
	return a.alertDB.Set(ctx, r.URL, r.Success, now)
}

func (a *Alerter) describe(ctx context.Context, r domain.CheckResult) string {
	httpTxt := "n/a"
	if r.Success {
		httpTxt = fmt.Sprintf("%d", r.StatusCode)
	}
	latencyTxt := "n/a"
	if r.Elapsed > 0 {
		latencyTxt = fmt.Sprintf("%d ms", r.ElapsedMS())
	}
	reason := r.Reason
	if reason == "" {
		reason = "ok"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nHTTP: %s\nLatency: %s\nReason: %s\nChecked: %s",
		r.URL, httpTxt, latencyTxt, reason, r.ObservedAt.Format(time.RFC3339))

	if !r.Success && a.Diagnose != nil {
		limit := a.DiagnoseTimeout
		if limit <= 0 {
			limit = DefaultDiagnoseTimeout
		}
		dctx, cancel := context.WithTimeout(ctx, limit)
		dns := a.Diagnose(dctx, r.URL)
		cancel()
		a.logger.Info("dns_check",
			zap.String("host", dns.Host),
			zap.String("class", dns.Class),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("cname", dns.CNAME),
			zap.String("resolver_error", dns.ResolverError),
		)
		fmt.Fprintf(&b, "\nDNS: %s", dns.Class)
	}
	return b.String()
}
