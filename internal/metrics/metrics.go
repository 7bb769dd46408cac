package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/fulfillment"
)

const namespace = "rental"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	allocatedUnits  *prometheus.CounterVec
	allocatedLines  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	estimates       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		allocatedUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "allocated_units_total",
			Help:      "Requested units by allocation outcome.",
		}, []string{"outcome"}),
		allocatedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "allocated_lines_total",
			Help:      "Requested lines by allocation outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quickbooks",
			Name:      "estimates_total",
			Help:      "QuickBooks estimate attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.allocatedUnits,
		m.allocatedLines,
		m.requestDuration,
		m.estimates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveAllocation(outcome fulfillment.Outcome, units int) {
	m.allocatedLines.WithLabelValues(outcome.String()).Inc()
	m.allocatedUnits.WithLabelValues(outcome.String()).Add(float64(units))
}

func (m *Metrics) ObserveEstimate(err error) {
	result := "created"
	if err != nil {
		result = "failed"
	}
	m.estimates.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request latency labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
