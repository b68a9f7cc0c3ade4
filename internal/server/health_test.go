package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakePinger reports a fixed outcome for readiness tests.
type fakePinger struct {
	name string
	err  error
}

func (p *fakePinger) Name() string { return p.name }
func (p *fakePinger) Ping(_ context.Context) error { return p.err }

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Test_HandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)

	rec := getPath(t, s.Handler(), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func Test_HandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, &Config{Pingers: []Pinger{
		&fakePinger{name: "qdrant"},
		&fakePinger{name: "openai"},
	}})

	rec := getPath(t, s.Handler(), "/api/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body)
	}
	var body readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Ready || len(body.Checks) != 2 {
		t.Errorf("body = %+v", body)
	}
}

func Test_HandleReady_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, &Config{Pingers: []Pinger{
		&fakePinger{name: "qdrant"},
		&fakePinger{name: "openai", err: fmt.Errorf("connection refused")},
	}})

	rec := getPath(t, s.Handler(), "/api/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Ready {
		t.Error("ready = true with a failing dependency")
	}
	var failed *readyCheck
	for i := range body.Checks {
		if body.Checks[i].Name == "openai" {
			failed = &body.Checks[i]
		}
	}
	if failed == nil || failed.OK || failed.Error == "" {
		t.Errorf("openai check = %+v", failed)
	}
}

func Test_HandleReady_NoPingers(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)

	if rec := getPath(t, s.Handler(), "/api/ready"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no configured probes", rec.Code)
	}
}

func Test_NewModelPinger_NilCheck(t *testing.T) {
	t.Parallel()

	if p := NewModelPinger(nil, "ark"); p != nil {
		t.Errorf("pinger for nil check = %v, want nil", p)
	}
}
