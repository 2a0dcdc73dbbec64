// Package metrics exports Prometheus metrics on a registry owned by the
// application, so tests can build as many as they like.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	metricsstore "github.com/dalemusser/brewcircles/internal/app/store/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

const namespace = "brewcircles"

// ResultOK is the result label of a successful operation.
const ResultOK = "ok"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg        *prometheus.Registry
	operations *prometheus.CounterVec
	httpReqs   *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	repairs    prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Circle operations by name and result kind.",
		}, []string{"operation", "result"}),
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_repairs_total",
			Help:      "Circles whose counters or admin set were corrected by the repair worker.",
		}),
	}
	m.reg.MustRegister(
		m.operations, m.httpReqs, m.httpDur, m.repairs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// RegisterStoreGauges exports collection totals and the number of circles
// with a drifted member counter, read at scrape time. A failed drift query
// reports -1.
func (m *Metrics) RegisterStoreGauges(db *mongo.Database, timeout time.Duration) {
	if m == nil {
		return
	}
	counts := func() metricsstore.Counts {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return metricsstore.FetchCounts(ctx, db)
	}
	m.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "circles", Help: "Number of circles.",
		}, func() float64 { return float64(counts().Circles) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "memberships", Help: "Number of circle memberships.",
		}, func() float64 { return float64(counts().Memberships) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "circle_brews", Help: "Number of brews shared into circles.",
		}, func() float64 { return float64(counts().Brews) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "drifted_circles", Help: "Circles whose member_count disagrees with their memberships.",
		}, func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			n, err := metricsstore.DriftedCircles(ctx, db)
			if err != nil {
				return -1
			}
			return float64(n)
		}),
	)
}

// RecordOperation counts one call of operation. result is ResultOK or an
// error kind.
func (m *Metrics) RecordOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordRepair counts one repaired circle.
func (m *Metrics) RecordRepair() {
	if m == nil {
		return
	}
	m.repairs.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records request counts and latency by chi route pattern, so
// ids in the path do not explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
