// Package metrics provides Prometheus metrics for the relay's HTTP surface and
// upstream provider calls.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/tile_relay/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relay outcomes used as the "outcome" label.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeProviderError   = "provider_error"
	OutcomeMalformedOutput = "malformed_output"
)

var durationBuckets = []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0, 30.0, 60.0}

// Metrics owns a private registry and the relay's collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPDurationHistogram prometheus.Histogram

	RelayRequestsTotal        *prometheus.CounterVec
	ProviderDurationHistogram *prometheus.HistogramVec

	server *http.Server
	log    logger.Logger
}

// NewMetrics creates a Metrics instance with every collector registered.
func NewMetrics(namespace string, l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP responses by status code",
	}, []string{"code"})

	m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   durationBuckets,
	})

	m.RelayRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_requests_total",
		Help:      "Relay requests by provider and outcome",
	}, []string{"provider", "outcome"})

	m.ProviderDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of outbound provider calls in seconds",
		Buckets:   durationBuckets,
	}, []string{"provider"})

	m.reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPDurationHistogram,
		m.RelayRequestsTotal,
		m.ProviderDurationHistogram,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.reg.MustRegister(c)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// RecordRelay counts one relay request with its outcome.
func (m *Metrics) RecordRelay(provider, outcome string) {
	if m == nil {
		return
	}
	m.RelayRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// ObserveProvider records the duration of one outbound provider call.
func (m *Metrics) ObserveProvider(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderDurationHistogram.WithLabelValues(provider).Observe(d.Seconds())
}

// HTTPMiddleware returns a chi-compatible middleware that tracks HTTP metrics.
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPDurationHistogram.Observe(time.Since(start).Seconds())
			m.HTTPRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		})
	}
}

// Listen starts the metrics HTTP server on the given port. The returned channel
// receives the listener's terminal error, if any, and is closed when it stops.
func (m *Metrics) Listen(port int) chan error {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))

	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	return errChan
}

// Shutdown stops the metrics listener started by Listen.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	m.log.Info("Stopping metrics listener")
	return m.server.Shutdown(ctx)
}
