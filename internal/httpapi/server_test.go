package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	apimw "github.com/hamed0406/sitecheck/internal/httpapi/middleware"
	"github.com/hamed0406/sitecheck/internal/repo/memory"
	"github.com/hamed0406/sitecheck/internal/shutdown"
	"github.com/hamed0406/sitecheck/internal/stats"
)

var testKeys = apimw.Keys{Public: []string{"pub_test"}, Admin: []string{"adm_test"}}

func setup(t *testing.T) (*Server, *memory.Store, *shutdown.Signal, *httptest.Server) {
	t.Helper()
	store := memory.New(0)
	stop := shutdown.New()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})
	s := NewServer(zap.NewNop(), store, metrics, stop)
	ts := httptest.NewServer(s.Router(testKeys, 600, 100))
	t.Cleanup(ts.Close)
	return s, store, stop, ts
}

func do(t *testing.T, method, url, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, url, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthzAndMetrics(t *testing.T) {
	_, _, _, ts := setup(t)

	if resp := do(t, http.MethodGet, ts.URL+"/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: want 200 got %d", resp.StatusCode)
	}
	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "# metrics\n" {
		t.Fatalf("metrics: got %d %q", resp.StatusCode, body)
	}
}

func TestStats(t *testing.T) {
	s, _, _, ts := setup(t)

	var empty statsResponse
	resp := do(t, http.MethodGet, ts.URL+"/api/stats", "pub_test")
	if err := json.NewDecoder(resp.Body).Decode(&empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty.Round != 0 || len(empty.URLs) != 0 || empty.UpdatedAt != nil {
		t.Fatalf("expected empty stats, got %+v", empty)
	}

	agg := stats.NewAggregator()
	now := time.Now()
	agg.Add(domain.Succeeded("http://a", 200, 100*time.Millisecond, now))
	agg.Add(domain.Failed("http://a", "request error: boom", now))
	_ = s.Summary(context.Background(), 3, agg.Snapshot())

	var got statsResponse
	resp = do(t, http.MethodGet, ts.URL+"/api/stats", "adm_test")
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Round != 3 || len(got.URLs) != 1 {
		t.Fatalf("unexpected stats %+v", got)
	}
	row := got.URLs[0]
	// failures count toward the average with zero elapsed
	if row.URL != "http://a" || row.Checks != 2 || row.Successes != 1 || row.UptimePct != 50 || row.AvgLatencyMS != 50 {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestStats_RequiresKey(t *testing.T) {
	_, _, _, ts := setup(t)
	if resp := do(t, http.MethodGet, ts.URL+"/api/stats", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/api/stats", "wrong"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", resp.StatusCode)
	}
}

func TestLatestResults(t *testing.T) {
	_, store, _, ts := setup(t)
	ctx := context.Background()
	now := time.Now()
	_ = store.Append(ctx, domain.Failed("http://b", "request error: x", now))
	_ = store.Append(ctx, domain.Succeeded("http://a", 200, 5*time.Millisecond, now))
	_ = store.Append(ctx, domain.Succeeded("http://b", 204, 7*time.Millisecond, now))

	var rows []domain.CheckResult
	resp := do(t, http.MethodGet, ts.URL+"/api/results/latest", "pub_test")
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows got %d", len(rows))
	}
	if rows[0].URL != "http://a" || rows[1].URL != "http://b" {
		t.Fatalf("unexpected order: %s, %s", rows[0].URL, rows[1].URL)
	}
	if !rows[1].Success || rows[1].StatusCode != 204 {
		t.Fatalf("latest for b should be the 204, got %+v", rows[1])
	}
}

func TestShutdown(t *testing.T) {
	_, _, stop, ts := setup(t)

	if resp := do(t, http.MethodPost, ts.URL+"/api/shutdown", "pub_test"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("public key: want 403 got %d", resp.StatusCode)
	}
	if stop.Requested() {
		t.Fatal("shutdown must not trigger for public key")
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/shutdown", "adm_test"); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("admin key: want 202 got %d", resp.StatusCode)
	}
	select {
	case <-stop.Done():
	case <-time.After(time.Second):
		t.Fatal("shutdown signal not triggered")
	}
}
