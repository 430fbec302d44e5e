package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/lokutor-ai/delivery-coach/internal/config"
	"github.com/lokutor-ai/delivery-coach/internal/logger"
	"github.com/lokutor-ai/delivery-coach/internal/middleware"
	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
	"github.com/lokutor-ai/delivery-coach/pkg/feedback"
)

// Deps are the collaborators shared by every session
type Deps struct {
	// Coach generates written feedback; nil or unconfigured disables it
	Coach *feedback.Coach

	Telemetry analyzer.Telemetry

	// Metrics is mounted at /metrics when set
	Metrics http.Handler
}

// HTTPServer serves health, metrics and the analysis websocket.
type HTTPServer struct {
	server *http.Server
	cfg    *config.Config
	log    zerolog.Logger
	deps   Deps
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(cfg *config.Config, log zerolog.Logger, deps Deps) *HTTPServer {
	if deps.Telemetry == nil {
		deps.Telemetry = analyzer.NoOpTelemetry{}
	}
	s := &HTTPServer{cfg: cfg, log: log, deps: deps}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	r.Get("/ws/analyze", s.analyze)

	s.server = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *HTTPServer) newController(log zerolog.Logger) *analyzer.Controller {
	return analyzer.New(
		analyzer.WithConfig(s.cfg.Analyzer()),
		analyzer.WithLogger(logger.NewAdapter(log)),
		analyzer.WithTelemetry(s.deps.Telemetry),
	)
}
