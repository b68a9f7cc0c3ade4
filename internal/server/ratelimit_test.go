package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func Test_RateLimiter_EnforcesBurst(t *testing.T) {
	t.Parallel()

	// 1 req/s with a burst of 2: the third immediate request must be rejected.
	s := newTestServer(t, &fakeTurns{}, &Config{RateLimit: 1, RateBurst: 2})

	var codes []int
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests = %v, want first two 200", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func Test_RateLimiter_PerIP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, &Config{RateLimit: 1, RateBurst: 1})

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("10.0.0.1:1000"); code != http.StatusOK {
		t.Errorf("first ip = %d", code)
	}
	if code := do("10.0.0.1:1001"); code != http.StatusTooManyRequests {
		t.Errorf("same ip, new port = %d, want 429", code)
	}
	// A different client is not affected by the first one's bucket.
	if code := do("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("second ip = %d, want 200", code)
	}
}

func Test_RateLimiter_RetryAfterHeader(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, &Config{RateLimit: 1, RateBurst: 1})

	for i := range 2 {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if i == 1 && rec.Header().Get("Retry-After") == "" {
			t.Error("429 response missing Retry-After header")
		}
	}
}

func Test_RateLimiter_Evict(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, discardLogger())
	defer stop()

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")

	rl.mu.Lock()
	rl.limiters["10.0.0.1"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()

	rl.evict()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["10.0.0.1"]; ok {
		t.Error("stale entry survived eviction")
	}
	if _, ok := rl.limiters["10.0.0.2"]; !ok {
		t.Error("fresh entry was evicted")
	}
}

func Test_ClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"10.0.0.1:54321", "10.0.0.1"},
		{"[::1]:54321", "[::1]"},
		{"10.0.0.1", "10.0.0.1"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.addr
		if got := clientIP(req); got != tc.want {
			t.Errorf("clientIP(%q) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}
