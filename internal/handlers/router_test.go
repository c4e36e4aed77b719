package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRouterMountsGroups(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	health := NewHealthHandlers(
		WithHealthClock(func() time.Time { return now }),
		WithHealthCheck("firestore", func(context.Context) error { return nil }),
	)
	public := NewPublicHandlers(WithPublicStorefrontService(&stubStorefront{}))
	router := NewRouter(WithHealthHandlers(health), WithPublicRoutes(public.Routes))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "healthz", target: "/healthz", status: http.StatusOK},
		{name: "readyz", target: "/readyz", status: http.StatusOK},
		{name: "public home", target: "/api/v1/public/home", status: http.StatusOK},
		{name: "admin not configured", target: "/api/v1/admin/dashboard", status: http.StatusServiceUnavailable},
		{name: "unknown route", target: "/nope", status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.target, nil))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected application/json, got %q", ct)
			}
		})
	}
}

func TestReadyzReportsFailingCheck(t *testing.T) {
	health := NewHealthHandlers(WithHealthCheck("firestore", func(context.Context) error {
		return errors.New("deadline exceeded")
	}))
	rr := httptest.NewRecorder()
	health.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
