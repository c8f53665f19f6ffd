// Package metrics exposes Eterna's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eterna"

// Tick results.
const (
	TickOK         = "ok"
	TickListFailed = "list_failed"
	TickPartial    = "partial"
)

// Metrics records decay and support activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks          *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	skippedTicks   prometheus.Counter
	faded          prometheus.Counter
	updateFailures prometheus.Counter
	supports       *prometheus.CounterVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "ticks_total",
			Help:      "Decay ticks run, by result.",
		}, []string{"result"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one decay tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		skippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "skipped_ticks_total",
			Help:      "Timer fires dropped because the previous tick was still running.",
		}),
		faded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "artifacts_faded_total",
			Help:      "Artifacts whose fade level was raised by decay.",
		}),
		updateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "update_failures_total",
			Help:      "Per-artifact decay writes that failed.",
		}),
		supports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "support_actions_total",
			Help:      "Support actions handled, by action and result.",
		}, []string{"action", "result"}),
	}
	m.registry.MustRegister(
		m.ticks, m.tickDuration, m.skippedTicks, m.faded, m.updateFailures, m.supports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTick records one completed decay tick.
func (m *Metrics) ObserveTick(result string, faded, failed int, d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(result).Inc()
	m.tickDuration.Observe(d.Seconds())
	m.faded.Add(float64(faded))
	m.updateFailures.Add(float64(failed))
}

// TickSkipped records a timer fire dropped due to overlap.
func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}
	m.skippedTicks.Inc()
}

// ObserveSupport records a support action outcome such as "ok", "not_found"
// or "unavailable".
func (m *Metrics) ObserveSupport(action, result string) {
	if m == nil {
		return
	}
	m.supports.WithLabelValues(action, result).Inc()
}
