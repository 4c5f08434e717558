package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/nlsql/internal/api/middleware"
	"github.com/Rrens/nlsql/internal/security"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubject(r.Context())
	w.Header().Set("X-Subject", subject)
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", "nlsql", time.Hour)
	auth := middleware.NewAuthMiddleware(manager, security.ScopeExport)
	h := auth.Authenticate(http.HandlerFunc(okHandler))

	granted, err := manager.GenerateToken("nightly-report", []string{security.ScopeExport})
	require.NoError(t, err)
	noScope, err := manager.GenerateToken("viewer", nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"missing scope", "Bearer " + noScope, http.StatusForbidden},
		{"valid", "Bearer " + granted, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/export/table/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "nightly-report", rec.Header().Get("X-Subject"))
			}
		})
	}
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	f.keys = append(f.keys, key)
	return f.allowed, 7, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), f.err
}

func TestRateLimitMiddleware_Limit(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		limiter := &fakeLimiter{allowed: true}
		h := middleware.NewRateLimitMiddleware(limiter).Limit(http.HandlerFunc(okHandler))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "7", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "2024-01-01T00:01:00Z", rec.Header().Get("X-RateLimit-Reset"))
		assert.Equal(t, []string{"ip:10.0.0.1"}, limiter.keys)
	})

	t.Run("exceeded", func(t *testing.T) {
		h := middleware.NewRateLimitMiddleware(&fakeLimiter{}).Limit(http.HandlerFunc(okHandler))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("limiter down fails open", func(t *testing.T) {
		h := middleware.NewRateLimitMiddleware(&fakeLimiter{err: errors.New("redis down")}).Limit(http.HandlerFunc(okHandler))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
