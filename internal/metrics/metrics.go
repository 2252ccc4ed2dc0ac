// Package metrics exposes Prometheus instrumentation for the flow API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects service-level metrics.
type Recorder struct {
	loadsTotal        *prometheus.CounterVec
	loadDuration      prometheus.Histogram
	aggregationsTotal *prometheus.CounterVec
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New creates a Recorder registered on the given registerer. Passing nil
// uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxnet_loads_total",
				Help: "Total number of raw table loads by outcome",
			},
			[]string{"outcome"},
		),
		loadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fluxnet_load_duration_seconds",
				Help:    "Duration of raw table load and reconstruction",
				Buckets: prometheus.DefBuckets,
			},
		),
		aggregationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxnet_aggregations_total",
				Help: "Total number of aggregation calls by granularity",
			},
			[]string{"granularity"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxnet_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fluxnet_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordLoad records one load attempt.
func (r *Recorder) RecordLoad(outcome string, seconds float64) {
	r.loadsTotal.WithLabelValues(outcome).Inc()
	r.loadDuration.Observe(seconds)
}

// RecordAggregation records one aggregation call.
func (r *Recorder) RecordAggregation(granularity string) {
	r.aggregationsTotal.WithLabelValues(granularity).Inc()
}

// RecordRequest records one completed HTTP request.
func (r *Recorder) RecordRequest(method, path, status string, seconds float64) {
	r.requestsTotal.WithLabelValues(method, path, status).Inc()
	r.requestDuration.WithLabelValues(method, path).Observe(seconds)
}
