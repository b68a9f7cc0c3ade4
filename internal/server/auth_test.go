package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_AuthMiddleware(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, &Config{APIKey: "secret-key"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-key", http.StatusUnauthorized},
		{"wrong token", "Bearer not-it", http.StatusUnauthorized},
		{"valid token", "Bearer secret-key", http.StatusOK},
		{"case-insensitive scheme", "bearer secret-key", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate challenge")
			}
		})
	}
}

func Test_AuthMiddleware_DisabledWithoutKey(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when auth is disabled", rec.Code)
	}
}

func Test_AuthMiddleware_HealthExempt(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, &Config{APIKey: "secret-key"})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without credentials", rec.Code)
	}
}

func Test_BearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well formed", "Bearer abc123", "abc123"},
		{"extra whitespace", "Bearer   abc123", "abc123"},
		{"missing token", "Bearer", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(req); got != tc.want {
			t.Errorf("%s: bearerToken = %q, want %q", tc.name, got, tc.want)
		}
	}
}
