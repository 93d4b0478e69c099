// Package stats keeps per-URL running counters across rounds.
//
// An Aggregator is owned by a single goroutine (the scheduler). Readers on
// other goroutines only ever see Entry copies taken with Snapshot.
package stats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// URLStats are the running counters for one URL.
type URLStats struct {
	Checks       uint64
	Successes    uint64
	TotalElapsed time.Duration
}

// Record folds one final result into the counters.
func (s *URLStats) Record(ok bool, elapsed time.Duration) {
	s.Checks++
	if ok {
		s.Successes++
	}
	s.TotalElapsed += elapsed
}

// Uptime is the success percentage, 0 when nothing was recorded.
func (s URLStats) Uptime() float64 {
	if s.Checks == 0 {
		return 0
	}
	return float64(s.Successes) * 100 / float64(s.Checks)
}

// AvgLatency is TotalElapsed/Checks, 0 when nothing was recorded.
func (s URLStats) AvgLatency() time.Duration {
	if s.Checks == 0 {
		return 0
	}
	return s.TotalElapsed / time.Duration(s.Checks)
}

// AvgLatencyMS is the average latency in fractional milliseconds.
func (s URLStats) AvgLatencyMS() float64 {
	if s.Checks == 0 {
		return 0
	}
	return float64(s.TotalElapsed) / float64(time.Millisecond) / float64(s.Checks)
}

// Entry is a point-in-time copy of one URL's counters.
type Entry struct {
	URL string
	URLStats
}

type Aggregator struct {
	byURL map[string]*URLStats
}

func NewAggregator() *Aggregator {
	return &Aggregator{byURL: make(map[string]*URLStats)}
}

// Add records a result, creating the URL's counters on first sight.
func (a *Aggregator) Add(r domain.CheckResult) {
	s := a.byURL[r.URL]
	if s == nil {
		s = &URLStats{}
		a.byURL[r.URL] = s
	}
	s.Record(r.Success, r.Elapsed)
}

// Get returns a copy of the counters for url.
func (a *Aggregator) Get(url string) (URLStats, bool) {
	s, ok := a.byURL[url]
	if !ok {
		return URLStats{}, false
	}
	return *s, true
}

func (a *Aggregator) Len() int { return len(a.byURL) }

// Snapshot copies every entry, ordered by URL.
func (a *Aggregator) Snapshot() []Entry {
	out := make([]Entry, 0, len(a.byURL))
	for url, s := range a.byURL {
		out = append(out, Entry{URL: url, URLStats: *s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Line renders one summary line.
func (e Entry) Line() string {
	return fmt.Sprintf("%s -> checks: %d, uptime: %.1f%%, avg_rt_ms: %.1f",
		e.URL, e.Checks, e.Uptime(), e.AvgLatencyMS())
}

// Render writes the summary block for entries.
func Render(w io.Writer, entries []Entry) error {
	if _, err := fmt.Fprintln(w, "--- stats summary ---"); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.Line()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "---------------------")
	return err
}
