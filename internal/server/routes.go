package server

import "github.com/gridfeed/gridfeed/internal/server/handlers"

func (s *Server) registerRoutes(runs *handlers.RunsHandler) {
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	s.router.Get("/version", handlers.NewVersionHandler(s.build))
	s.router.Get("/metrics", s.MetricsHandler)

	s.router.Get("/v1/runs", runs.List)
	s.router.Get("/v1/runs/{runID}/{year}/failures", runs.Failures)
}
