package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cutout_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cutout_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Pipeline processing metrics
	traceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cutout_trace_requests_total",
			Help: "Total number of trace requests",
		},
		[]string{"status"},
	)

	traceProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cutout_trace_processing_duration_seconds",
			Help:    "Full pipeline processing duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	decomposeProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cutout_decompose_processing_duration_seconds",
			Help:    "Polygon decomposition duration in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	pieceCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cutout_pieces_produced",
			Help:    "Number of pieces produced per request",
			Buckets: []float64{1, 2, 4, 8, 12, 16, 24, 32, 48, 64},
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cutout_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"scope"}, // scope: minute, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cutout_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cutout_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cutout_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
