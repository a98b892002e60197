// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes recorded by UploadsTotal.
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeUnavailable  = "unavailable"
	OutcomeUploadFailed = "upload_failed"
	OutcomePersistFail  = "persist_failed"
)

var (
	// HTTPRequestsTotal counts HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks requests currently being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// HTTPRequestSizeBytes observes request body sizes.
	HTTPRequestSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8), // 100B to 10GB
		},
		[]string{"method", "path"},
	)

	// HTTPRateLimitedTotal counts requests rejected by the rate limiter.
	HTTPRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	// UploadsTotal counts upload attempts by outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_uploads_total",
			Help: "Photo upload attempts by outcome",
		},
		[]string{"outcome"},
	)

	// RemoteUploadDuration observes remote backend upload latency.
	RemoteUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_remote_upload_duration_seconds",
			Help:    "Remote image backend upload latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"provider"},
	)

	// CompensationsTotal counts remote deletes issued after a failed metadata save.
	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_upload_compensations_total",
			Help: "Remote objects destroyed after a failed metadata save",
		},
		[]string{"status"},
	)

	// DeletesTotal counts photo deletions.
	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_deletes_total",
			Help: "Photo deletions by outcome",
		},
		[]string{"outcome"},
	)

	// PhotosStored reports the collection size after the last load.
	PhotosStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_photos",
			Help: "Number of photo records in the metadata store",
		},
	)
)

// Status returns "success" or "failed" for err.
func Status(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
