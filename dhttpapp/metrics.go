package dhttpapp

import (
	"net/http"
	"strconv"

	"github.com/advdv/dhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the dispatcher.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	forwards prometheus.Counter
	errors   *prometheus.CounterVec
}

// NewMetrics creates the dispatcher metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{registry: registry}

	m.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dhttp",
			Subsystem: "dispatcher",
			Name:      "requests_total",
			Help:      "Total number of dispatched requests",
		},
		[]string{"method"},
	)

	m.forwards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dhttp",
			Subsystem: "dispatcher",
			Name:      "forwards_total",
			Help:      "Total number of handler-to-handler forwards",
		},
	)

	m.errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dhttp",
			Subsystem: "dispatcher",
			Name:      "errors_total",
			Help:      "Total number of requests answered with an error envelope",
		},
		[]string{"status", "code"},
	)

	registry.MustRegister(
		m.requests,
		m.forwards,
		m.errors,
	)

	return m
}

// Sink returns an event sink that counts dispatcher events.
func (m *Metrics) Sink() dhttp.EventSink {
	return dhttp.SinkFunc(func(_ dhttp.Event, payload any) {
		switch p := payload.(type) {
		case dhttp.IncomingMessagePayload:
			m.requests.WithLabelValues(p.Method).Inc()
		case dhttp.ForwardingPayload:
			m.forwards.Inc()
		case dhttp.ErrorPayload:
			m.errors.WithLabelValues(strconv.Itoa(p.Status), p.Code).Inc()
		}
	})
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
