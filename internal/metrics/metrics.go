// Package metrics exposes check and round counters to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/stats"
)

// Recorder is both a result sink and a summary sink. It registers on its own
// registry so several recorders can coexist in one process (tests).
type Recorder struct {
	registry    *prometheus.Registry
	checksTotal *prometheus.CounterVec
	duration    prometheus.Histogram
	roundsTotal prometheus.Counter
	urlsTracked prometheus.Gauge
	pending     prometheus.GaugeFunc
}

// NewRecorder builds the collectors. pending, when non-nil, reports the
// number of queued jobs at scrape time.
func NewRecorder(pending func() int) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecheck_checks_total",
				Help: "Final check results by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitecheck_check_duration_seconds",
			Help:    "Elapsed time of successful checks",
			Buckets: prometheus.DefBuckets,
		}),
		roundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitecheck_rounds_total",
			Help: "Completed check rounds",
		}),
		urlsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitecheck_urls_tracked",
			Help: "Distinct URLs with statistics",
		}),
	}
	r.registry.MustRegister(r.checksTotal, r.duration, r.roundsTotal, r.urlsTracked)
	if pending != nil {
		r.pending = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sitecheck_jobs_pending",
			Help: "Jobs waiting for a worker",
		}, func() float64 { return float64(pending()) })
		r.registry.MustRegister(r.pending)
	}
	return r
}

func (r *Recorder) Emit(_ context.Context, res domain.CheckResult) error {
	if res.Success {
		r.checksTotal.WithLabelValues("success").Inc()
		r.duration.Observe(res.Elapsed.Seconds())
		return nil
	}
	r.checksTotal.WithLabelValues("failure").Inc()
	return nil
}

func (r *Recorder) Summary(_ context.Context, _ int, entries []stats.Entry) error {
	r.roundsTotal.Inc()
	r.urlsTracked.Set(float64(len(entries)))
	return nil
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
