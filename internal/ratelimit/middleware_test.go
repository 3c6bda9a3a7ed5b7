package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/af-corp/promptguard-gateway/internal/auth"
	"github.com/af-corp/promptguard-gateway/internal/httputil"
)

func intPtr(v int) *int { return &v }

func TestMiddleware_AllowsRequest(t *testing.T) {
	limiter := NewLimiter(nil)
	quota := NewQuotaTracker(nil)
	mw := Middleware(limiter, quota, nil)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scan", nil)
	authInfo := &auth.AuthInfo{
		KeyID:          "key-1",
		OrganizationID: "org-1",
		TeamID:         "team-1",
		RPMLimit:       intPtr(100),
	}
	req = req.WithContext(auth.ContextWithAuth(req.Context(), authInfo))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	// Check rate limit headers
	if h := rec.Header().Get(headerRateLimitRequests); h != "100" {
		t.Errorf("expected X-RateLimit-Limit-Requests=100, got %s", h)
	}
	if h := rec.Header().Get(headerRateLimitRemainingRequests); h == "" {
		t.Error("expected X-RateLimit-Remaining-Requests header")
	}
	if h := rec.Header().Get(headerRateLimitReset); h == "" {
		t.Error("expected X-RateLimit-Reset-Requests header")
	}
}

func TestMiddleware_DefaultRPM(t *testing.T) {
	limiter := NewLimiter(nil)
	quota := NewQuotaTracker(nil)
	mw := Middleware(limiter, quota, nil)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scan", nil)
	authInfo := &auth.AuthInfo{
		KeyID:          "key-2",
		OrganizationID: "org-1",
		TeamID:         "team-1",
		// RPMLimit is nil — should use default (60)
	}
	req = req.WithContext(auth.ContextWithAuth(req.Context(), authInfo))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-2")

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if h := rec.Header().Get(headerRateLimitRequests); h != "60" {
		t.Errorf("expected default RPM=60, got %s", h)
	}
}

func TestMiddleware_NoAuth_PassThrough(t *testing.T) {
	limiter := NewLimiter(nil)
	quota := NewQuotaTracker(nil)
	mw := Middleware(limiter, quota, nil)

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scan", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to be called when no auth context")
	}
}

func TestMiddleware_QuotaExceededErrorFormat(t *testing.T) {
	// With nil Redis, quota always passes. Test that the error format is
	// correct by directly testing WriteQuotaExceededError.
	rec := httptest.NewRecorder()
	httputil.WriteQuotaExceededError(rec, "req-3", "Daily scan quota exceeded")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}

	var apiErr httputil.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if apiErr.Error.Code != "daily_quota_exceeded" {
		t.Errorf("expected code 'daily_quota_exceeded', got %s", apiErr.Error.Code)
	}
}

func TestMiddleware_QuotaTrackedPerTeam(t *testing.T) {
	limiter := NewLimiter(nil)
	quota := NewQuotaTracker(nil)
	mw := Middleware(limiter, quota, nil)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scan", nil)
	authInfo := &auth.AuthInfo{
		KeyID:          "key-3",
		OrganizationID: "org-1",
		TeamID:         "team-1",
		DailyScanLimit: intPtr(100),
	}
	req = req.WithContext(auth.ContextWithAuth(req.Context(), authInfo))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-4")

	handler.ServeHTTP(rec, req)

	// nil Redis: quota check fails open, request goes through
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
