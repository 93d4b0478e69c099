package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/sitecheck/internal/httpapi/middleware"
	"github.com/hamed0406/sitecheck/internal/repo"
	"github.com/hamed0406/sitecheck/internal/shutdown"
	"github.com/hamed0406/sitecheck/internal/stats"
)

// Server exposes the latest round summary and results. It is fed by the
// scheduler as a summary sink and never touches the live aggregator.
type Server struct {
	Logger  *zap.Logger
	Results repo.ResultStore
	Metrics http.Handler
	Stop    *shutdown.Signal

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	Round   int
	At      time.Time
	Entries []stats.Entry
}

func NewServer(l *zap.Logger, rs repo.ResultStore, metrics http.Handler, stop *shutdown.Signal) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Results: rs, Metrics: metrics, Stop: stop}
}

// Summary publishes a round's snapshot for readers.
func (s *Server) Summary(_ context.Context, round int, entries []stats.Entry) error {
	s.snap.Store(&snapshot{Round: round, At: time.Now().UTC(), Entries: entries})
	return nil
}

func (s *Server) Router(keys apimw.Keys, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(rpm, burst))
		r.With(apimw.RequireAny(keys)).Get("/stats", s.handleStats)
		r.With(apimw.RequireAny(keys)).Get("/results/latest", s.handleLatest)
		r.With(apimw.RequireAdmin(keys)).Post("/shutdown", s.handleShutdown)
	})

	return r
}

type statsRow struct {
	URL          string  `json:"url"`
	Checks       uint64  `json:"checks"`
	Successes    uint64  `json:"successes"`
	UptimePct    float64 `json:"uptime_pct"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

type statsResponse struct {
	Round     int        `json:"round"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	URLs      []statsRow `json:"urls"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{URLs: []statsRow{}}
	if snap := s.snap.Load(); snap != nil {
		resp.Round = snap.Round
		at := snap.At
		resp.UpdatedAt = &at
		for _, e := range snap.Entries {
			resp.URLs = append(resp.URLs, statsRow{
				URL:          e.URL,
				Checks:       e.Checks,
				Successes:    e.Successes,
				UptimePct:    e.Uptime(),
				AvgLatencyMS: e.AvgLatencyMS(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.Results == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("api_latest_error", zap.Error(err))
		http.Error(w, "latest error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.Stop == nil {
		http.Error(w, "shutdown not available", http.StatusNotImplemented)
		return
	}
	if s.Stop.Trigger() {
		s.Logger.Warn("shutdown_requested", zap.String("source", "api"), zap.String("remote", r.RemoteAddr))
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
