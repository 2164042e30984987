package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware instruments wrapped handlers with request count and duration.
type Middleware struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New(registry prometheus.Registerer, buckets []float64) *Middleware {
	if buckets == nil {
		buckets = prometheus.ExponentialBuckets(0.1, 1.5, 5)
	}

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Tracks the number of HTTP requests.",
		}, []string{"method", "code", "handler"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Tracks the latencies for HTTP requests.",
			Buckets: buckets,
		},
		[]string{"method", "code", "handler"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	return &Middleware{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
	}
}

func (m *Middleware) WrapHandler(handlerName string, handler http.Handler) http.HandlerFunc {
	handlerLabel := prometheus.Labels{"handler": handlerName}
	wrapped := promhttp.InstrumentHandlerCounter(
		m.requestsTotal.MustCurryWith(handlerLabel),
		promhttp.InstrumentHandlerDuration(
			m.requestDuration.MustCurryWith(handlerLabel),
			handler,
		),
	)
	return wrapped.ServeHTTP
}
