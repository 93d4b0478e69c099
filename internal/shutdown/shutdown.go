// Package shutdown holds the process-wide stop request.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Signal is set at most once. Loops poll Requested or wait on Done.
type Signal struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Trigger requests shutdown. It reports whether this call was the one that
// set the signal.
func (s *Signal) Trigger() bool {
	first := false
	s.once.Do(func() {
		s.set.Store(true)
		close(s.done)
		first = true
	})
	return first
}

func (s *Signal) Requested() bool { return s.set.Load() }

// Done is closed once shutdown has been requested.
func (s *Signal) Done() <-chan struct{} { return s.done }

// Replaced in tests.
var (
	notify     = signal.Notify
	stopNotify = signal.Stop
)

// Watch triggers s on the first of sigs and then lets go of them, so a
// second interrupt gets the default behavior and ends the process. The
// returned func stops watching.
func Watch(s *Signal, log *zap.Logger, sigs ...os.Signal) (stop func()) {
	if log == nil {
		log = zap.NewNop()
	}
	ch := make(chan os.Signal, 1)
	notify(ch, sigs...)
	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			stopNotify(ch)
			if s.Trigger() {
				log.Warn("shutdown_requested", zap.String("signal", sig.String()))
			}
		case <-quit:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			stopNotify(ch)
			close(quit)
		})
	}
}
