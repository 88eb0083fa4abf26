package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core"
	apperrors "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/server/handlers"
	servermw "github.com/gridfeed/gridfeed/internal/server/middleware"
)

// Options configures the status API.
type Options struct {
	Host  string
	Port  int
	Build config.BuildInfo
	// MetricsPort is the Prometheus exporter port proxied at /metrics.
	// Zero means the exporter's own port.
	MetricsPort int
	Logger      core.Logger
}

// Server is the read-only status API over recorded ingestion runs.
type Server struct {
	router      *chi.Mux
	server      *http.Server
	host        string
	port        int
	metricsPort int
	logger      core.Logger
	build       config.BuildInfo
	health      *handlers.HealthManager
}

// New creates a server reading run history from runs.
func New(runs handlers.RunReader, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics(logger))
	r.Use(servermw.Recovery(logger))

	s := &Server{
		router:      r,
		host:        opts.Host,
		port:        opts.Port,
		metricsPort: opts.MetricsPort,
		logger:      logger,
		build:       opts.Build,
	}
	s.health = handlers.NewHealthManager(opts.Build.Version, s.HandleError)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		s.HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s.registerRoutes(handlers.NewRunsHandler(runs, s.HandleError))
	return s
}

// HandleError normalizes err and writes it as a JSON error body.
func (s *Server) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	envelope := apperrors.EnsureEnvelope(r.Context(), err)
	apperrors.RespondWithEnvelope(w, s.logger, servermw.GetRequestID(r.Context()), envelope)
}

// RegisterChecker adds a dependency check to /health and /health/ready.
func (s *Server) RegisterChecker(name string, checker handlers.HealthChecker) {
	s.health.RegisterChecker(name, checker)
}

// Start listens and serves until Shutdown. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server",
		zap.String("host", s.host),
		zap.Int("port", s.port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
