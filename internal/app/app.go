// Package app wires the checker, worker pool, scheduler and sinks together
// and runs the orderly drain-and-join on exit.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/sitecheck/internal/config"
	"github.com/hamed0406/sitecheck/internal/httpapi"
	apimw "github.com/hamed0406/sitecheck/internal/httpapi/middleware"
	"github.com/hamed0406/sitecheck/internal/metrics"
	"github.com/hamed0406/sitecheck/internal/notify"
	"github.com/hamed0406/sitecheck/internal/output"
	"github.com/hamed0406/sitecheck/internal/pool"
	"github.com/hamed0406/sitecheck/internal/probe"
	"github.com/hamed0406/sitecheck/internal/repo"
	"github.com/hamed0406/sitecheck/internal/repo/memory"
	"github.com/hamed0406/sitecheck/internal/repo/postgres"
	"github.com/hamed0406/sitecheck/internal/scheduler"
	"github.com/hamed0406/sitecheck/internal/shutdown"
)

const apiShutdownTimeout = 5 * time.Second

// store is what the scheduler and API need from a backing store.
type store interface {
	repo.ResultStore
	repo.AlertStore
}

// App holds everything a run needs. Build it with New, then call Run once.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	stop   *shutdown.Signal

	pool      *pool.Pool
	sched     *scheduler.Scheduler
	store     store
	closeDB   func() error
	api       *http.Server
	recorder  *metrics.Recorder
	apiServer *httpapi.Server
}

// New validates cfg, opens the result store and assembles the pipeline.
// Workers start immediately; nothing is checked until Run.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer, stop *shutdown.Signal) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if stop == nil {
		stop = shutdown.New()
	}
	a := &App{cfg: cfg, logger: logger, stop: stop, closeDB: func() error { return nil }}

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		a.store, a.closeDB = pg, pg.Close
		logger.Info("store_ready", zap.String("kind", "postgres"))
	} else {
		a.store = memory.New(memory.DefaultHistory)
		logger.Info("store_ready", zap.String("kind", "memory"))
	}

	checker := probe.NewRetryChecker(
		probe.NewHTTPChecker(cfg.Timeout, cfg.Headers, cfg.Contains),
		cfg.MaxRetries,
		logger.Named("probe"),
	)
	// Workers get a context that outlives the interrupt so queued jobs
	// still finish during the drain.
	a.pool = pool.New(context.Background(), cfg.Workers, checker.Check, logger.Named("pool"))
	a.recorder = metrics.NewRecorder(a.pool.Pending)

	a.sched = scheduler.NewScheduler(logger.Named("scheduler"), a.pool, stop, cfg.URLs, cfg.Period)
	a.sched.Results = []scheduler.ResultSink{
		output.NewJSONLines(stdout),
		a.recorder,
		scheduler.StoreSink{Store: a.store},
	}
	a.sched.Summaries = []scheduler.SummarySink{
		output.NewSummary(stdout),
		a.recorder,
	}

	if cfg.SlackWebhook != "" {
		alerter := scheduler.NewAlerter(logger.Named("alerts"), a.store, notify.Multi{notify.NewSlack(cfg.SlackWebhook)},
			scheduler.AlerterConfig{AlertOnRecovery: cfg.AlertOnRecovery, Cooldown: cfg.AlertCooldown})
		a.sched.Results = append(a.sched.Results, alerter)
	}

	if cfg.Listen != "" {
		a.apiServer = httpapi.NewServer(logger.Named("api"), a.store, a.recorder.Handler(), stop)
		a.sched.Summaries = append(a.sched.Summaries, a.apiServer)
		keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
		a.api = &http.Server{
			Addr:              cfg.Listen,
			Handler:           a.apiServer.Router(keys, cfg.PublicRPM, cfg.PublicBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return a, nil
}

// Scheduler exposes the round loop, mainly for inspection in tests.
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }

// Run serves the API if configured, drives rounds until a single round is
// done, stop fires or ctx ends, then stops enqueuing, closes the queue,
// joins every worker and closes the store.
func (a *App) Run(ctx context.Context) error {
	var g errgroup.Group
	if a.api != nil {
		g.Go(func() error {
			a.logger.Info("api_listen", zap.String("addr", a.api.Addr))
			if err := a.api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("api_failed", zap.Error(err))
				a.stop.Trigger()
				return err
			}
			return nil
		})
	}

	rounds := a.sched.Run(ctx)
	a.logger.Info("scheduler_stopped", zap.Int("rounds", rounds), zap.Bool("interrupted", a.stop.Requested()))

	// Anything still in flight when the scheduler left is discarded, but it
	// must be read so no worker blocks on a full results channel.
	g.Go(func() error {
		n := 0
		for range a.pool.Results() {
			n++
		}
		if n > 0 {
			a.logger.Info("results_discarded", zap.Int("count", n))
		}
		return nil
	})
	a.pool.Close()
	a.pool.Wait()

	var err error
	if a.api != nil {
		sctx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
		err = multierr.Append(err, a.api.Shutdown(sctx))
		cancel()
	}
	err = multierr.Append(err, g.Wait())
	err = multierr.Append(err, a.closeDB())
	a.logger.Info("shutdown_complete", zap.Error(err))
	return err
}

// Run is New followed by App.Run.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer, stop *shutdown.Signal) error {
	a, err := New(ctx, cfg, logger, stdout, stop)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
