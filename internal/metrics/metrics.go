// Package metrics exposes Prometheus metrics for the HTTP API, the signup
// ledger and the poster worker.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/volunteer-connect/backend/internal/apperr"
)

const metricsNamespace = "volunteer_connect"

// Collector is a prometheus.Collector for the application metrics.
type Collector struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	ledgerOperations *prometheus.CounterVec
	hoursAccrued     prometheus.Counter
	posterJobs       *prometheus.CounterVec
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "The number of HTTP requests handled.",
			}, []string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "The time taken to handle HTTP requests.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			}, []string{"method", "route"},
		),
		ledgerOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "signup_operations_total",
				Help:      "The number of signup ledger operations by outcome.",
			}, []string{"operation", "outcome"},
		),
		hoursAccrued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "volunteer_hours_accrued_total",
				Help:      "The volunteer hours credited through attendance.",
			},
		),
		posterJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "poster_jobs_total",
				Help:      "The number of poster cleanup jobs processed by outcome.",
			}, []string{"outcome"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.requestDuration.Describe(ch)
	c.ledgerOperations.Describe(ch)
	c.hoursAccrued.Describe(ch)
	c.posterJobs.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.requestDuration.Collect(ch)
	c.ledgerOperations.Collect(ch)
	c.hoursAccrued.Collect(ch)
	c.posterJobs.Collect(ch)
}

// ObserveRequest records one handled HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// LedgerOperation records the outcome of a signup operation. A nil err counts as "ok";
// otherwise the outcome is the error kind.
func (c *Collector) LedgerOperation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	c.ledgerOperations.WithLabelValues(op, outcome).Inc()
}

// HoursAccrued records hours credited to a volunteer.
func (c *Collector) HoursAccrued(hours float64) {
	c.hoursAccrued.Add(hours)
}

// PosterJob records a processed poster job outcome: "done", "retried" or "dead".
func (c *Collector) PosterJob(outcome string) {
	c.posterJobs.WithLabelValues(outcome).Inc()
}
