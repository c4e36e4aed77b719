package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const readinessTimeout = 3 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	checks  map[string]HealthCheck
	clock   func() time.Time
	started time.Time
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithHealthCheck registers a readiness dependency probe.
func WithHealthCheck(name string, check HealthCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// WithHealthClock overrides the clock, for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs the probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{checks: map[string]HealthCheck{}, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.started = h.clock()
	return h
}

// Healthz reports liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	now := h.clock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.started).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz runs every registered check and reports 503 when any fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	overall := "ok"
	checks := make(map[string]map[string]string, len(names))
	for _, name := range names {
		result := map[string]string{"status": "ok"}
		if err := h.checks[name](ctx); err != nil {
			result = map[string]string{"status": "error", "error": err.Error()}
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		checks[name] = result
	}

	writeJSON(w, status, map[string]any{
		"status":    overall,
		"checks":    checks,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
