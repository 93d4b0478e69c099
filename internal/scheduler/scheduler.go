package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/shutdown"
	"github.com/hamed0406/sitecheck/internal/stats"
)

// DefaultPollInterval bounds how long a sleeping scheduler takes to notice
// a shutdown request.
const DefaultPollInterval = 200 * time.Millisecond

// DefaultSinkTimeout bounds a single sink call so a stalled store or
// webhook cannot hold up the round loop.
const DefaultSinkTimeout = 5 * time.Second

// Jobs is the worker pool as seen by the scheduler.
type Jobs interface {
	Submit(url string) error
	Results() <-chan domain.CheckResult
}

// ResultSink receives every collected result on the scheduler goroutine.
type ResultSink interface {
	Emit(ctx context.Context, r domain.CheckResult) error
}

// SummarySink receives the full stats snapshot after every round.
type SummarySink interface {
	Summary(ctx context.Context, round int, entries []stats.Entry) error
}

type State int32

const (
	StateIdle State = iota
	StateEnqueuing
	StateCollecting
	StateSleeping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnqueuing:
		return "enqueuing"
	case StateCollecting:
		return "collecting"
	case StateSleeping:
		return "sleeping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Scheduler drives rounds: submit every URL, collect one result per
// submitted URL, fold them into Stats, then stop or sleep for Period.
type Scheduler struct {
	Logger       *zap.Logger
	Jobs         Jobs
	Stop         *shutdown.Signal
	URLs         []string
	Period       time.Duration // zero runs a single round
	PollInterval time.Duration
	SinkTimeout  time.Duration
	Stats        *stats.Aggregator
	Results      []ResultSink
	Summaries    []SummarySink

	state atomic.Int32
	round atomic.Int64
}

func NewScheduler(
	logger *zap.Logger,
	jobs Jobs,
	stop *shutdown.Signal,
	urls []string,
	period time.Duration,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stop == nil {
		stop = shutdown.New()
	}
	if period < 0 {
		period = 0
	}
	return &Scheduler{
		Logger:       logger,
		Jobs:         jobs,
		Stop:         stop,
		URLs:         urls,
		Period:       period,
		PollInterval: DefaultPollInterval,
		SinkTimeout:  DefaultSinkTimeout,
		Stats:        stats.NewAggregator(),
	}
}

// State reports where the round loop currently is.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Round is the number of the most recently started round.
func (s *Scheduler) Round() int { return int(s.round.Load()) }

// Run loops until a single round finished (no Period), Stop is triggered
// or ctx is done. It returns the number of rounds it started.
func (s *Scheduler) Run(ctx context.Context) int {
	defer s.setState(StateTerminated)

	for !s.stopping(ctx) {
		round := int(s.round.Add(1))
		s.Logger.Info("round_started", zap.Int("round", round), zap.Int("urls", len(s.URLs)))

		s.setState(StateEnqueuing)
		submitted := s.enqueue(ctx, round)

		s.setState(StateCollecting)
		collected := s.collect(ctx, submitted)
		if collected < submitted {
			s.Logger.Warn("round_incomplete",
				zap.Int("round", round),
				zap.Int("submitted", submitted),
				zap.Int("collected", collected),
			)
		}
		s.summarize(ctx, round)
		s.Logger.Info("round_finished", zap.Int("round", round), zap.Int("results", collected))

		if s.Period == 0 {
			break
		}
		s.setState(StateSleeping)
		if !s.sleep(ctx) {
			break
		}
	}
	return s.Round()
}

func (s *Scheduler) stopping(ctx context.Context) bool {
	return s.Stop.Requested() || ctx.Err() != nil
}

func (s *Scheduler) setState(st State) { s.state.Store(int32(st)) }

// enqueue submits URLs in order until done or stopped; jobs already
// submitted are still collected.
func (s *Scheduler) enqueue(ctx context.Context, round int) int {
	n := 0
	for _, url := range s.URLs {
		if s.stopping(ctx) {
			s.Logger.Info("enqueue_aborted", zap.Int("round", round), zap.Int("submitted", n))
			break
		}
		if err := s.Jobs.Submit(url); err != nil {
			s.Logger.Warn("enqueue_failed", zap.Int("round", round), zap.String("url", url), zap.Error(err))
			break
		}
		n++
	}
	return n
}

// collect receives exactly want results in whatever order they arrive. It
// returns early only if the result channel closes.
func (s *Scheduler) collect(ctx context.Context, want int) int {
	results := s.Jobs.Results()
	for got := 0; got < want; got++ {
		r, ok := <-results
		if !ok {
			return got
		}
		s.Logger.Debug("check_result",
			zap.String("url", r.URL),
			zap.Bool("up", r.Success),
			zap.Int("status", r.StatusCode),
			zap.Duration("elapsed", r.Elapsed),
			zap.String("reason", r.Reason),
		)
		for _, sink := range s.Results {
			sctx, cancel := s.sinkContext(ctx)
			err := sink.Emit(sctx, r)
			cancel()
			if err != nil {
				s.Logger.Warn("result_sink_error", zap.String("url", r.URL), zap.Error(err))
			}
		}
		s.Stats.Add(r)
	}
	return want
}

func (s *Scheduler) summarize(ctx context.Context, round int) {
	if len(s.Summaries) == 0 {
		return
	}
	snap := s.Stats.Snapshot()
	for _, sink := range s.Summaries {
		sctx, cancel := s.sinkContext(ctx)
		err := sink.Summary(sctx, round, snap)
		cancel()
		if err != nil {
			s.Logger.Warn("summary_sink_error", zap.Int("round", round), zap.Error(err))
		}
	}
}

func (s *Scheduler) sinkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	d := s.SinkTimeout
	if d <= 0 {
		d = DefaultSinkTimeout
	}
	return context.WithTimeout(ctx, d)
}

// sleep waits for Period in PollInterval steps. It reports false when
// shutdown was requested meanwhile.
func (s *Scheduler) sleep(ctx context.Context) bool {
	step := s.PollInterval
	if step <= 0 {
		step = DefaultPollInterval
	}
	deadline := time.Now().Add(s.Period)
	for {
		if s.stopping(ctx) {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		if remaining < step {
			step = remaining
		}
		t := time.NewTimer(step)
		select {
		case <-s.Stop.Done():
			t.Stop()
			return false
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}
