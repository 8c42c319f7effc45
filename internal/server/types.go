package server

import (
	"net/http"

	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/MeKo-Tech/cutout/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	baseConfig  pipeline.Config
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	limiter     *rateLimiter
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config

	// RequestsPerMinute and MaxUploadPerDayMB enable per-client rate
	// limiting when positive. Zero disables the corresponding limit.
	RequestsPerMinute int
	MaxUploadPerDayMB int64
}

// HealthResponse is the payload of the /health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// TraceResponse is the payload of the /trace endpoint.
type TraceResponse struct {
	Success bool             `json:"success"`
	Result  *pieces.Document `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// DecomposeRequest is the JSON body of the /decompose endpoint. The
// polygon is a closed silhouette in normalized [0,1] coordinates.
type DecomposeRequest struct {
	Polygon [][2]float64 `json:"polygon"`
	Pieces  int          `json:"pieces"`
	Seed    int64        `json:"seed,omitempty"`
}

// DecomposeResponse is the payload of the /decompose endpoint.
type DecomposeResponse struct {
	Success  bool                   `json:"success"`
	Achieved int                    `json:"achieved,omitempty"`
	Degraded bool                   `json:"degraded,omitempty"`
	Pieces   []pieces.PieceDocument `json:"pieces,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// NewServer creates a new cut-out server instance.
func NewServer(config Config) (*Server, error) {
	// Validate the base pipeline config up front so bad settings fail
	// at startup instead of on the first request.
	if _, err := pipeline.NewBuilder().WithConfig(config.PipelineConfig).Build(); err != nil {
		return nil, err
	}

	var limiter *rateLimiter
	if config.RequestsPerMinute > 0 || config.MaxUploadPerDayMB > 0 {
		limiter = newRateLimiter(config.RequestsPerMinute, config.MaxUploadPerDayMB*1024*1024)
	}

	return &Server{
		baseConfig:  config.PipelineConfig,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		limiter:     limiter,
	}, nil
}

// requestPipeline builds a pipeline for one request, applying any
// per-request overrides on top of the server's base configuration.
func (s *Server) requestPipeline(o requestOptions) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().WithConfig(s.baseConfig)
	if o.pieces > 0 {
		b = b.WithPieceCount(o.pieces)
	}
	if o.tolerance != nil {
		b = b.WithBackgroundTolerance(*o.tolerance)
	}
	if o.simplify != nil {
		b = b.WithSimplifyTolerance(*o.simplify)
	}
	if o.interior != nil {
		b = b.WithInteriorSampling(*o.interior)
	}
	if o.seed != 0 {
		b = b.WithSeed(o.seed)
	}
	return b.Build()
}

// requestOptions are the per-request pipeline overrides parsed from
// form values or WebSocket options.
type requestOptions struct {
	pieces    int
	seed      int64
	tolerance *int
	simplify  *float64
	interior  *bool
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/trace", s.corsMiddleware(s.rateLimitMiddleware(s.traceHandler)))
	mux.HandleFunc("/decompose", s.corsMiddleware(s.rateLimitMiddleware(s.decomposeHandler)))
	mux.HandleFunc("/ws/decompose", s.decomposeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
