// Package httpapi exposes video job submission, job polling, single-frame
// detection and dashboard maintenance over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Tirth2116/OceanEye/internal/dashboard"
	"github.com/Tirth2116/OceanEye/internal/jobs"
	"github.com/Tirth2116/OceanEye/internal/metrics"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
)

// DefaultMaxUploadBytes caps a single multipart upload.
const DefaultMaxUploadBytes int64 = 2 << 30

// detector runs the frame pipeline.
type detector interface {
	Run(ctx context.Context, imagePath string) ([]pipeline.Detection, error)
}

// forwarder publishes detections to the dashboard.
type forwarder interface {
	Forward(ctx context.Context, imagePath string, detections []pipeline.Detection) dashboard.ForwardResult
}

// clearer empties the dashboard.
type clearer interface {
	Clear(ctx context.Context) error
}

// Config locates uploads and outputs on disk.
type Config struct {
	UploadsDir     string
	OutputsDir     string
	MaxUploadBytes int64
	// AllowedOrigins lists CORS origins; empty allows localhost only.
	AllowedOrigins []string
}

// Server holds the handlers' collaborators. Build it with New.
type Server struct {
	supervisor *jobs.Supervisor
	detector   detector
	forwarder  forwarder
	dashboard  clearer
	metrics    *metrics.Metrics
	cfg        Config
	now        func() time.Time
}

// New creates a Server. m may be nil.
func New(supervisor *jobs.Supervisor, det detector, fwd forwarder, dash clearer, cfg Config, m *metrics.Metrics) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		supervisor: supervisor,
		detector:   det,
		forwarder:  fwd,
		dashboard:  dash,
		metrics:    m,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Handler returns the routed handler wrapped in logging, CORS and response
// compression. Video responses are never compressed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/upload-video", s.handleUploadVideo)
	mux.HandleFunc("/upload-image", s.handleUploadImage)
	mux.HandleFunc("/clear-detections", s.handleClearDetections)
	mux.HandleFunc("/jobs", s.handleListJobs)
	mux.HandleFunc("/jobs/", s.handleJobRoutes)
	mux.HandleFunc("/outputs/", s.handleOutput)
	mux.Handle("/metrics", s.metrics.Handler())

	return withLogging(withCORS(compressed(mux), s.cfg.AllowedOrigins))
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
