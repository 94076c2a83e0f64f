package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "p2p_ramp"

// Metrics groups the collectors exported by the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AllocationsTotal  *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	ExpiredTotal      prometheus.Counter
	LedgerMovements   *prometheus.CounterVec
	SettingsVersion   prometheus.Gauge
	EventPublishFails prometheus.Counter
}

// New builds the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AllocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Card allocation attempts by outcome",
		}, []string{"outcome"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_transitions_total",
			Help:      "Transaction status transitions",
		}, []string{"to"}),
		ExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_expired_total",
			Help:      "Pending transactions cancelled by the expiry sweep",
		}),
		LedgerMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movements_total",
			Help:      "Trader balance credits and debits",
		}, []string{"kind"}),
		SettingsVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "settings_version",
			Help:      "Version of the settings snapshot in use",
		}),
		EventPublishFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Lifecycle events that could not be published",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AllocationsTotal,
		m.TransitionsTotal,
		m.ExpiredTotal,
		m.LedgerMovements,
		m.SettingsVersion,
		m.EventPublishFails,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordAllocation counts a requestCard outcome ("allocated", "no_capacity", "rejected").
func (m *Metrics) RecordAllocation(outcome string) {
	if m == nil {
		return
	}
	m.AllocationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordExpired() {
	if m == nil {
		return
	}
	m.ExpiredTotal.Inc()
}

// RecordLedger counts a balance movement ("credit" or "debit").
func (m *Metrics) RecordLedger(kind string) {
	if m == nil {
		return
	}
	m.LedgerMovements.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetSettingsVersion(v int64) {
	if m == nil {
		return
	}
	m.SettingsVersion.Set(float64(v))
}

func (m *Metrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFails.Inc()
}
