package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/repo"
)

// DefaultHistory is how many results are kept per URL when New gets 0.
const DefaultHistory = 100

type Store struct {
	mu      sync.RWMutex
	limit   int
	results map[string][]domain.CheckResult
	alerts  map[string]repo.AlertRecord
}

// New keeps at most historyPerURL results for every URL.
func New(historyPerURL int) *Store {
	if historyPerURL <= 0 {
		historyPerURL = DefaultHistory
	}
	return &Store{
		limit:   historyPerURL,
		results: make(map[string][]domain.CheckResult),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

func (m *Store) Append(ctx context.Context, r domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := append(m.results[r.URL], r)
	if len(h) > m.limit {
		h = append(h[:0:0], h[len(h)-m.limit:]...)
	}
	m.results[r.URL] = h
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.CheckResult, 0, len(m.results))
	for _, h := range m.results {
		latest := h[0]
		for _, r := range h[1:] {
			if !r.ObservedAt.Before(latest.ObservedAt) {
				latest = r
			}
		}
		out = append(out, latest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

// History returns the retained results for url, oldest first.
func (m *Store) History(ctx context.Context, url string) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.CheckResult(nil), m.results[url]...), nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, url string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[url]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, url string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.alerts[url] = repo.AlertRecord{URL: url, LastState: lastState, LastSentAt: ts}
	return nil
}
