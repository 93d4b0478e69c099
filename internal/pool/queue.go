package pool

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("job queue closed")

// Queue is an unbounded multi-producer, multi-consumer queue of URLs. Push
// never waits for a consumer. Every pushed item is delivered to exactly one
// receiver of Out. After Close the remaining items are still delivered and
// then Out is closed.
type Queue struct {
	in    chan string
	out   chan string
	depth atomic.Int64

	mu     sync.Mutex
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{
		in:  make(chan string),
		out: make(chan string),
	}
	go q.pump()
	return q
}

func (q *Queue) pump() {
	var buf []string
	in := q.in
	for in != nil || len(buf) > 0 {
		var out chan string
		var next string
		if len(buf) > 0 {
			out = q.out
			next = buf[0]
		}
		select {
		case item, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, item)
		case out <- next:
			buf[0] = ""
			buf = buf[1:]
			q.depth.Add(-1)
		}
	}
	close(q.out)
}

// Push enqueues url.
func (q *Queue) Push(url string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.depth.Add(1)
	q.in <- url
	return nil
}

// Out is the shared consuming end.
func (q *Queue) Out() <-chan string { return q.out }

// Len is the number of items waiting for a consumer.
func (q *Queue) Len() int { return int(q.depth.Load()) }

// Close stops accepting new items. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}
