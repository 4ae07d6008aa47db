package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeHealthResponse(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	return response
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if response := decodeHealthResponse(t, rec); response.Status != healthStatusOK {
		t.Errorf("Status = %q, want %q", response.Status, healthStatusOK)
	}
}

func TestLivenessHandlerIgnoresReadiness(t *testing.T) {
	// Liveness must not flap when the server is merely not ready
	h := NewHealthChecker(nil)
	h.SetReady(false)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		h := NewHealthChecker(nil)

		req := httptest.NewRequest("GET", "/readyz", nil)
		rec := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		response := decodeHealthResponse(t, rec)
		if response.Checks["ready"] != healthStatusOK {
			t.Errorf("ready check = %q, want %q", response.Checks["ready"], healthStatusOK)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHealthChecker(nil)
		h.SetReady(false)

		req := httptest.NewRequest("GET", "/readyz", nil)
		rec := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		response := decodeHealthResponse(t, rec)
		if response.Status != healthStatusNotReady {
			t.Errorf("Status = %q, want %q", response.Status, healthStatusNotReady)
		}
	})

	t.Run("shutting down", func(t *testing.T) {
		provider := newTestProvider()
		sc, err := NewServerContext(context.Background(), provider, nil)
		if err != nil {
			t.Fatalf("NewServerContext() error: %v", err)
		}
		h := NewHealthChecker(sc)
		if err := sc.Shutdown(); err != nil {
			t.Fatalf("Shutdown() error: %v", err)
		}

		req := httptest.NewRequest("GET", "/readyz", nil)
		rec := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		response := decodeHealthResponse(t, rec)
		if response.Checks["shutdown"] != healthStatusShuttingDown {
			t.Errorf("shutdown check = %q, want %q", response.Checks["shutdown"], healthStatusShuttingDown)
		}
	})
}

func TestReadinessHandlerNamedChecks(t *testing.T) {
	t.Run("passing check", func(t *testing.T) {
		h := NewHealthChecker(nil)
		h.AddCheck("auth", func(_ context.Context) error { return nil })

		req := httptest.NewRequest("GET", "/readyz", nil)
		rec := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		response := decodeHealthResponse(t, rec)
		if response.Checks["auth"] != healthStatusOK {
			t.Errorf("auth check = %q, want %q", response.Checks["auth"], healthStatusOK)
		}
	})

	t.Run("failing check takes server out of rotation", func(t *testing.T) {
		h := NewHealthChecker(nil)
		h.AddCheck("auth", func(_ context.Context) error {
			return errors.New("token storage unreachable")
		})

		req := httptest.NewRequest("GET", "/readyz", nil)
		rec := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		response := decodeHealthResponse(t, rec)
		if response.Checks["auth"] != "token storage unreachable" {
			t.Errorf("auth check = %q, want the check error", response.Checks["auth"])
		}
	})

	t.Run("re-registering replaces the check", func(t *testing.T) {
		h := NewHealthChecker(nil)
		h.AddCheck("auth", func(_ context.Context) error {
			return errors.New("first")
		})
		h.AddCheck("auth", func(_ context.Context) error { return nil })

		req := httptest.NewRequest("GET", "/readyz", nil)
		rec := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})
}

func TestDetailedHealthHandler(t *testing.T) {
	h := NewHealthChecker(nil)
	h.AddCheck("storage", func(_ context.Context) error { return nil })

	req := httptest.NewRequest("GET", "/healthz/detailed", nil)
	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response DetailedHealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode detailed response: %v", err)
	}
	if response.Status != healthStatusOK {
		t.Errorf("Status = %q, want %q", response.Status, healthStatusOK)
	}
	if response.Uptime == "" {
		t.Error("expected uptime to be reported")
	}
	if response.Checks["storage"] != healthStatusOK {
		t.Errorf("storage check = %q, want %q", response.Checks["storage"], healthStatusOK)
	}
}

func TestRegisterHealthEndpoints(t *testing.T) {
	h := NewHealthChecker(nil)
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}
