// Package metrics exposes Prometheus metrics for the HTTP server and the catalog.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CatalogCounter reports collection sizes. *catalog.Store satisfies it.
type CatalogCounter interface {
	DocumentCount() int
	CategoryCount() int
}

// ClientCounter reports open live-update streams. *sse.Broker satisfies it.
type ClientCounter interface {
	ClientCount() int
}

// Metrics holds the registry and the collectors registered on it.
type Metrics struct {
	registry     *prometheus.Registry
	requestCount *prometheus.CounterVec
}

// New creates a registry with the HTTP request counter and catalog gauges.
// clients may be nil, in which case no stream gauge is registered.
func New(counter CatalogCounter, clients ClientCounter) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
	}

	collectors := []prometheus.Collector{
		m.requestCount,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "docuflow_documents",
			Help: "Number of documents in the catalog.",
		}, func() float64 { return float64(counter.DocumentCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "docuflow_categories",
			Help: "Number of categories in the catalog.",
		}, func() float64 { return float64(counter.CategoryCount()) }),
	}
	if clients != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "docuflow_sse_clients",
			Help: "Number of connected live-update streams.",
		}, func() float64 { return float64(clients.ClientCount()) }))
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware counts requests by method, route pattern and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern (e.g. /documents/{id}/delete) to keep label
		// cardinality bounded; fall back to the raw path on 404s.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestCount.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
