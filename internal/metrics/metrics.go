// Package metrics holds the Prometheus collectors of the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "debikan"

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	overrideWrites  *prometheus.CounterVec
	debouncedWrites *prometheus.CounterVec
	sessionLoads    *prometheus.CounterVec
	unsyncedRows    prometheus.Gauge
	remindersSent   prometheus.Counter
	sheetsExports   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		overrideWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_writes_total",
			Help:      "Override upserts by operation (insert, update) and result.",
		}, []string{"op", "result"}),
		debouncedWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounced_writes_total",
			Help:      "Amount edits flushed by the debouncer, by result.",
		}, []string{"result"}),
		sessionLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "month_loads_total",
			Help:      "Month session loads from the store, by result.",
		}, []string{"result"}),
		unsyncedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unsynced_rows",
			Help:      "Rows whose last write failed, across cached sessions.",
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Payment reminders published.",
		}),
		sheetsExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_exports_total",
			Help:      "Month exports to Google Sheets, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.overrideWrites,
		m.debouncedWrites,
		m.sessionLoads,
		m.unsyncedRows,
		m.remindersSent,
		m.sheetsExports,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) OverrideWrite(op string, err error) {
	if m == nil {
		return
	}
	m.overrideWrites.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) DebouncedWrite(err error) {
	if m == nil {
		return
	}
	m.debouncedWrites.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SessionLoad(err error) {
	if m == nil {
		return
	}
	m.sessionLoads.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) AddUnsynced(delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.unsyncedRows.Add(float64(delta))
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.remindersSent.Inc()
}

func (m *Metrics) SheetsExport(err error) {
	if m == nil {
		return
	}
	m.sheetsExports.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
