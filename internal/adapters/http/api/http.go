// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/sailwind/internal/app"
	"github.com/okian/sailwind/pkg/logger"
)

const (
	defaultMaxBodyBytes = 64 << 20
	defaultListLimit    = 20
	defaultMaxListLimit = 100
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Analyze(ctx context.Context, req service.Request) (service.Analysis, error)
	Analysis(ctx context.Context, id string) (service.Analysis, error)
	Recent(ctx context.Context, n int) ([]service.Analysis, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analysesHandler *AnalysesHandler
}

// Option configures a Server.
type Option func(*settings)

type settings struct {
	maxBodyBytes int64
	maxListLimit int
	log          logger.Logger
}

// WithMaxBodyBytes caps the size of an upload.
func WithMaxBodyBytes(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxListLimit caps ?limit on the listing endpoint.
func WithMaxListLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := settings{
		maxBodyBytes: defaultMaxBodyBytes,
		maxListLimit: defaultMaxListLimit,
		log:          logger.Nop(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		analysesHandler: &AnalysesHandler{
			deps:     deps,
			cfg:      cfg,
			validate: validator.New(),
		},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/analyses", MetricsMiddleware(s.analysesHandler.HandleCollection, "analyses"))
	mux.HandleFunc("/v1/analyses/", MetricsMiddleware(s.analysesHandler.HandleGet, "analysis"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
