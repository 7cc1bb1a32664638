package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "hostdash"

// Metrics holds every collector the service exports on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	panelRequests   *prometheus.CounterVec
	panelDuration   *prometheus.HistogramVec
	paymentRequests *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	grantsExpired   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		panelRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "panel",
				Name:      "requests_total",
				Help:      "Hosting panel calls by operation and result.",
			},
			[]string{"operation", "result"},
		),
		panelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "panel",
				Name:      "request_duration_seconds",
				Help:      "Hosting panel call duration including retries.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		paymentRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "processor_requests_total",
				Help:      "Payment processor calls by operation and result.",
			},
			[]string{"operation", "result"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Processor webhook deliveries by outcome.",
			},
			[]string{"provider", "outcome"},
		),
		grantsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "grants",
				Name:      "expired_total",
				Help:      "Grants expired by the scheduler.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests handled by the API.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration observed at the API layer.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.panelRequests,
		m.panelDuration,
		m.paymentRequests,
		m.webhookEvents,
		m.grantsExpired,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) ObservePanelCall(operation, result string, elapsed time.Duration) {
	m.panelRequests.WithLabelValues(operation, result).Inc()
	m.panelDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePaymentCall(operation, result string) {
	m.paymentRequests.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveWebhook(provider, outcome string) {
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) AddExpiredGrants(n int) {
	m.grantsExpired.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
