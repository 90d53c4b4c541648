package handlers

import (
	"context"
	"net/http"
	"time"
)

// DependencyPinger reports whether a backing dependency is reachable.
type DependencyPinger interface {
	Ping(ctx context.Context) error
}

// DependencyPingFunc adapts a function to the DependencyPinger interface.
type DependencyPingFunc func(ctx context.Context) error

// Ping implements DependencyPinger.
func (f DependencyPingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	startedAt time.Time
	pingers   map[string]DependencyPinger
}

// HealthOption customises health handler construction.
type HealthOption func(*HealthHandlers)

// WithHealthDependency registers a named dependency checked by /readyz.
func WithHealthDependency(name string, pinger DependencyPinger) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && pinger != nil {
			h.pingers[name] = pinger
		}
	}
}

// NewHealthHandlers builds the probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		startedAt: time.Now().UTC(),
		pingers:   make(map[string]DependencyPinger),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz reports process liveness; it never touches dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Readyz reports readiness, probing each registered dependency with a short
// per-check timeout.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := make(map[string]string, len(h.pingers))
	healthy := true
	for name, pinger := range h.pingers {
		checkCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
		err := pinger.Ping(checkCtx)
		cancel()
		if err != nil {
			checks[name] = "unavailable"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	writeJSONResponse(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
