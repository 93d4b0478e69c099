// Package pool runs a fixed set of workers that pull URLs from a shared
// queue and publish one result per URL.
package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// CheckFunc produces the final result for one URL.
type CheckFunc func(ctx context.Context, url string) domain.CheckResult

type Pool struct {
	logger  *zap.Logger
	check   CheckFunc
	queue   *Queue
	results chan domain.CheckResult
	size    int

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts size workers. They live until Close is called and the queue
// has drained. ctx is handed to every check; cancelling it aborts in-flight
// requests, so callers that want queued jobs finished keep it alive.
func New(ctx context.Context, size int, check CheckFunc, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		logger:  logger,
		check:   check,
		queue:   NewQueue(),
		results: make(chan domain.CheckResult, size),
		size:    size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(ctx, i)
	}
	return p
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for url := range p.queue.Out() {
		p.results <- p.runOne(ctx, id, url)
	}
	p.logger.Debug("worker_exit", zap.Int("worker", id))
}

// runOne turns a panicking check into a failure result so the round that
// submitted url still receives exactly one result for it.
func (p *Pool) runOne(ctx context.Context, id int, url string) (res domain.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker_panic",
				zap.Int("worker", id),
				zap.String("url", url),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = domain.Failed(url, fmt.Sprintf("internal error: %v", r), time.Now())
		}
	}()
	return p.check(ctx, url)
}

// Submit enqueues url for exactly one worker.
func (p *Pool) Submit(url string) error { return p.queue.Push(url) }

// Results is closed once every worker has exited.
func (p *Pool) Results() <-chan domain.CheckResult { return p.results }

func (p *Pool) Size() int { return p.size }

// Pending is the number of submitted jobs no worker has picked up yet.
func (p *Pool) Pending() int { return p.queue.Len() }

// Close stops accepting jobs. Workers finish what is queued and exit.
func (p *Pool) Close() { p.queue.Close() }

// Wait joins every worker, then closes Results. Results must be drained
// concurrently or be large enough for any outstanding jobs.
func (p *Pool) Wait() {
	p.wg.Wait()
	p.closeOnce.Do(func() { close(p.results) })
}
