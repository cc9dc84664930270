// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lpo_tracker"

// Metrics groups the collectors of one process. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	requisitionsCreated  prometheus.Counter
	requisitionDecisions *prometheus.CounterVec
	requisitionsRecalled prometheus.Counter
	lposCreated          prometheus.Counter
	lpoValue             prometheus.Counter
	lpoStatusChanges     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		requisitionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requisitions_created_total",
			Help:      "Requisitions submitted.",
		}),
		requisitionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requisition_decisions_total",
			Help:      "Requisitions approved or rejected.",
		}, []string{"status"}),
		requisitionsRecalled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requisitions_recalled_total",
			Help:      "Pending requisitions withdrawn by their owner.",
		}),
		lposCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lpos_created_total",
			Help:      "Local purchase orders issued.",
		}),
		lpoValue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lpo_value_total",
			Help:      "Sum of total_value over issued LPOs.",
		}),
		lpoStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lpo_status_changes_total",
			Help:      "LPO status updates by new status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.requisitionsCreated,
		m.requisitionDecisions,
		m.requisitionsRecalled,
		m.lposCreated,
		m.lpoValue,
		m.lpoStatusChanges,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RequisitionCreated() {
	if m == nil {
		return
	}
	m.requisitionsCreated.Inc()
}

func (m *Metrics) RequisitionDecided(status string) {
	if m == nil {
		return
	}
	m.requisitionDecisions.WithLabelValues(status).Inc()
}

func (m *Metrics) RequisitionRecalled() {
	if m == nil {
		return
	}
	m.requisitionsRecalled.Inc()
}

// LPOCreated counts an issued LPO and adds its value.
func (m *Metrics) LPOCreated(value float64) {
	if m == nil {
		return
	}
	m.lposCreated.Inc()
	m.lpoValue.Add(value)
}

func (m *Metrics) LPOStatusChanged(status string) {
	if m == nil {
		return
	}
	m.lpoStatusChanges.WithLabelValues(status).Inc()
}
