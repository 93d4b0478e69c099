// Package output renders results and summaries for humans and log shippers.
package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/stats"
)

// JSONLines writes one JSON object per result.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Emit(_ context.Context, r domain.CheckResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(r)
}

// Summary writes the stats block after every round.
type Summary struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSummary(w io.Writer) *Summary { return &Summary{w: w} }

func (s *Summary) Summary(_ context.Context, _ int, entries []stats.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stats.Render(s.w, entries)
}
