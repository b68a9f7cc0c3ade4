package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edukit/coachai-go/internal/store"
)

func Test_SessionCRUD(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)
	h := s.Handler()

	// Empty list before anything exists.
	rec := getPath(t, h, "/api/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list sessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Sessions == nil || len(list.Sessions) != 0 {
		t.Errorf("initial sessions = %+v, want empty non-nil slice", list.Sessions)
	}

	// Create.
	rec = postJSON(t, h, "/api/sessions",
		`{"agent_id":"professional_learning","title":"PLC kickoff"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body: %s", rec.Code, rec.Body)
	}
	var sess store.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sess.ID == "" || sess.Title != "PLC kickoff" || sess.AgentID != "professional_learning" {
		t.Errorf("created session = %+v", sess)
	}

	// Get it back.
	rec = getPath(t, h, "/api/sessions/"+sess.ID)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	// Transcript is empty but well formed.
	rec = getPath(t, h, "/api/sessions/"+sess.ID+"/messages")
	if rec.Code != http.StatusOK {
		t.Fatalf("messages status = %d", rec.Code)
	}
	var msgs messagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msgs.SessionID != sess.ID || msgs.Messages == nil || len(msgs.Messages) != 0 {
		t.Errorf("messages = %+v", msgs)
	}

	// Delete, then the session is gone.
	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	del := httptest.NewRecorder()
	h.ServeHTTP(del, req)
	if del.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", del.Code)
	}
	if rec = getPath(t, h, "/api/sessions/"+sess.ID); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func Test_SessionCreate_UnknownAgent(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)

	rec := postJSON(t, s.Handler(), "/api/sessions", `{"agent_id":"typo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func Test_Sessions_ScopedToUser(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)
	h := s.Handler()

	rec := postJSON(t, h, "/api/sessions", `{"agent_id":"professional_learning"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var sess store.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Another user cannot see the default user's session.
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	req.Header.Set("X-User-ID", "someone-else")
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	if other.Code != http.StatusNotFound {
		t.Errorf("cross-user get = %d, want 404", other.Code)
	}
}

func Test_HandleAgents(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeTurns{}, nil)

	rec := getPath(t, s.Handler(), "/api/agents")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body agentListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ids := make(map[string]bool, len(body.Agents))
	for _, a := range body.Agents {
		ids[a.ID] = true
	}
	if !ids["professional_learning"] || !ids["classroom_curriculum"] {
		t.Errorf("agent ids = %v, want both built-in personas", ids)
	}
}
