package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/sitecheck/internal/domain"
)

func TestURLStats_ZeroChecks(t *testing.T) {
	var s URLStats
	if s.Uptime() != 0 || s.AvgLatency() != 0 || s.AvgLatencyMS() != 0 {
		t.Fatalf("empty stats must report zeros, got %v %v", s.Uptime(), s.AvgLatency())
	}
}

func TestURLStats_Record(t *testing.T) {
	var s URLStats
	s.Record(true, 100*time.Millisecond)
	s.Record(false, 0)
	s.Record(true, 50*time.Millisecond)
	s.Record(true, 50*time.Millisecond)

	if s.Checks != 4 || s.Successes != 3 {
		t.Fatalf("counters wrong: %+v", s)
	}
	if s.Successes > s.Checks {
		t.Fatal("successes exceeded checks")
	}
	if s.Uptime() != 75 {
		t.Fatalf("want 75%% uptime, got %v", s.Uptime())
	}
	if s.AvgLatency() != 50*time.Millisecond || s.AvgLatencyMS() != 50 {
		t.Fatalf("want 50ms avg, got %v", s.AvgLatency())
	}
}

func TestAggregator_LazyEntriesAndSnapshot(t *testing.T) {
	a := NewAggregator()
	now := time.Now()
	a.Add(domain.Succeeded("https://b", 200, 10*time.Millisecond, now))
	a.Add(domain.Failed("https://a", "request error: x", now))
	a.Add(domain.Succeeded("https://b", 301, 20*time.Millisecond, now))

	if a.Len() != 2 {
		t.Fatalf("want 2 urls, got %d", a.Len())
	}
	b, ok := a.Get("https://b")
	if !ok || b.Checks != 2 || b.Successes != 2 {
		t.Fatalf("unexpected b stats: %+v", b)
	}
	if _, ok := a.Get("https://c"); ok {
		t.Fatal("unseen url must not exist")
	}

	snap := a.Snapshot()
	if len(snap) != 2 || snap[0].URL != "https://a" || snap[1].URL != "https://b" {
		t.Fatalf("snapshot not sorted by url: %+v", snap)
	}

	a.Add(domain.Failed("https://b", "x", now))
	if snap[1].Checks != 2 {
		t.Fatal("snapshot must be a copy")
	}
}

func TestRender(t *testing.T) {
	a := NewAggregator()
	now := time.Now()
	a.Add(domain.Succeeded("https://a", 200, 12*time.Millisecond+500*time.Microsecond, now))
	a.Add(domain.Failed("https://a", "x", now))
	a.Add(domain.Failed("https://a", "x", now))

	var buf bytes.Buffer
	if err := Render(&buf, a.Snapshot()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %q", buf.String())
	}
	if lines[1] != "https://a -> checks: 3, uptime: 33.3%, avg_rt_ms: 4.2" {
		t.Fatalf("unexpected line %q", lines[1])
	}
}
