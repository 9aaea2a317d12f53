package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "imagegen"

// Prometheus records service metrics on its own registry
type Prometheus struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	httpInflight       prometheus.Gauge
	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	credits            *prometheus.CounterVec
	taskPolls          *prometheus.CounterVec
	reconciled         *prometheus.CounterVec
	dbConnections      *prometheus.GaugeVec
	dbWaits            prometheus.Gauge
}

// NewPrometheus registers all collectors, including Go runtime and process collectors
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Finished generation flows by outcome.",
		}, []string{"outcome"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time from submission to a final outcome.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"outcome"}),
		credits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_total",
			Help:      "Credits moved through the ledger by kind.",
		}, []string{"kind"}),
		taskPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_polls_total",
			Help:      "Provider task status queries by observed status.",
		}, []string{"status"}),
		reconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_generations_total",
			Help:      "Stale pending generations resolved by the reconciler.",
		}, []string{"outcome"}),
		dbConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections",
			Help:      "Database pool connections by state.",
		}, []string{"state"}),
		dbWaits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connection_waits",
			Help:      "Cumulative number of waits for a pooled connection.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the metrics exposition endpoint
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// RequestStarted tracks an in-flight request and returns the function that completes it
func (p *Prometheus) RequestStarted() func(method, route string, status int, duration time.Duration) {
	p.httpInflight.Inc()
	return func(method, route string, status int, duration time.Duration) {
		p.httpInflight.Dec()
		p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// GenerationFinished records a generation flow outcome
func (p *Prometheus) GenerationFinished(outcome string, duration time.Duration) {
	p.generations.WithLabelValues(outcome).Inc()
	p.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// CreditsMoved records a ledger movement
func (p *Prometheus) CreditsMoved(kind string, credits int64) {
	p.credits.WithLabelValues(kind).Add(float64(credits))
}

// TaskPolled records one provider status query
func (p *Prometheus) TaskPolled(status string) {
	p.taskPolls.WithLabelValues(status).Inc()
}

// PendingReconciled records one reconciler resolution
func (p *Prometheus) PendingReconciled(outcome string) {
	p.reconciled.WithLabelValues(outcome).Inc()
}

// RecordPoolStats publishes a database connection pool sample
func (p *Prometheus) RecordPoolStats(stats sql.DBStats) {
	p.dbConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	p.dbConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	p.dbConnections.WithLabelValues("max_open").Set(float64(stats.MaxOpenConnections))
	p.dbWaits.Set(float64(stats.WaitCount))
}

var _ coreport.Metrics = (*Prometheus)(nil)
