package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
)

// Health check results
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusTimeout   = "timeout"
)

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse represents individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthManager runs registered checks for the health endpoints.
type HealthManager struct {
	checkers map[string]HealthChecker
	version  string
	respond  ErrorResponder
	now      func() time.Time
}

// NewHealthManager creates a health manager reporting version. Failed checks
// are written through respond.
func NewHealthManager(version string, respond ErrorResponder) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
		respond:  respond,
		now:      time.Now,
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.checkers[name] = checker
}

func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	checks := make(map[string]string, len(hm.checkers))

	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			checks[name] = StatusTimeout
			continue
		}
		if err := hm.checkers[name].CheckHealth(ctx); err != nil {
			checks[name] = StatusUnhealthy
		} else {
			checks[name] = StatusHealthy
		}
	}

	return checks
}

func determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		if status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if status == StatusDegraded || status == StatusTimeout {
			degraded = true
		}
	}
	if degraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// HealthHandler runs every check and reports the aggregate status.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks, status, ok := hm.probe(w, r, "", 5*time.Second)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: hm.now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// LivenessHandler reports that the process is serving requests.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ProbeResponse{
		Status:    StatusHealthy,
		Timestamp: hm.now().UTC(),
	})
}

// ReadinessHandler reports whether every dependency check passes.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	_, status, ok := hm.probe(w, r, "ready", 5*time.Second)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ProbeResponse{
		Status:    status,
		Timestamp: hm.now().UTC(),
	})
}

// probe runs the checks and writes the error response when one of them is
// unhealthy, returning ok=false in that case.
func (hm *HealthManager) probe(w http.ResponseWriter, r *http.Request, name string, timeout time.Duration) (map[string]string, string, bool) {
	checkCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := hm.runHealthChecks(checkCtx)
	status := determineOverallStatus(checks)
	if status != StatusUnhealthy {
		return checks, status, true
	}

	message := "aggregate health check failed"
	if name != "" {
		message = name + " probe failed"
	}
	envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", message)
	hm.respond(w, r, enrichHealthEnvelope(envelope, name, status, checks))
	return nil, status, false
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probe, status string, checks map[string]string) *errors.ErrorEnvelope {
	details := map[string]interface{}{
		"status": status,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	if probe != "" {
		details["probe"] = probe
	}
	envelope = envelope.WithDetails(details)

	var unhealthy []string
	for name, result := range checks {
		if result != StatusHealthy {
			unhealthy = append(unhealthy, name)
		}
	}
	if len(unhealthy) > 0 {
		sort.Strings(unhealthy)
		envelope, _ = envelope.WithContext(map[string]interface{}{
			"unhealthy_checks": unhealthy,
		})
	}
	return envelope
}
