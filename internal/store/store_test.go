package store

import (
	"context"
	"errors"
	"testing"

	"github.com/edukit/coachai-go/internal/rag"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_CreateAndGetSession(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateSession(ctx, "alice", "professional_learning", "PLC kickoff")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" {
		t.Fatal("session id not assigned")
	}

	got, err := s.GetSession(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "PLC kickoff" || got.AgentID != "professional_learning" || got.UserID != "alice" {
		t.Errorf("unexpected session: %+v", got)
	}
}

func Test_Store_DefaultTitle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	sess, err := s.CreateSession(context.Background(), "alice", "classroom_curriculum", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Title != "Chat with classroom_curriculum" {
		t.Errorf("title = %q", sess.Title)
	}
}

func Test_Store_SessionsAreUserScoped(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "professional_learning", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// The right id under the wrong user must behave as absent.
	if _, err := s.GetSession(ctx, "bob", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound for wrong user, got %v", err)
	}
	if _, err := s.Messages(ctx, "bob", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound for wrong user, got %v", err)
	}
	if err := s.DeleteSession(ctx, "bob", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound for wrong user, got %v", err)
	}
}

func Test_Store_AppendAndReadTranscript(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "professional_learning", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	page := 12
	if _, err := s.AppendMessage(ctx, "alice", sess.ID, Message{Role: RoleUser, Content: "How do we norm?"}); err != nil {
		t.Fatalf("AppendMessage user: %v", err)
	}
	saved, err := s.AppendMessage(ctx, "alice", sess.ID, Message{
		Role:    RoleAssistant,
		Content: "Start with shared agreements.",
		Citations: []rag.Citation{{
			ID:             "cite_1",
			SourceTitle:    "Learning by Doing",
			PageNumber:     &page,
			ChunkText:      "Teams establish norms collaboratively.",
			RelevanceScore: 0.91,
		}},
	})
	if err != nil {
		t.Fatalf("AppendMessage assistant: %v", err)
	}
	if saved.ID == "" {
		t.Error("message id not assigned")
	}

	msgs, err := s.Messages(ctx, "alice", sess.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Errorf("transcript order wrong: %v, %v", msgs[0].Role, msgs[1].Role)
	}
	if len(msgs[0].Citations) != 0 {
		t.Errorf("user message has citations: %v", msgs[0].Citations)
	}
	cites := msgs[1].Citations
	if len(cites) != 1 || cites[0].ID != "cite_1" || cites[0].SourceTitle != "Learning by Doing" {
		t.Fatalf("citations did not round-trip: %+v", cites)
	}
	if cites[0].PageNumber == nil || *cites[0].PageNumber != 12 {
		t.Errorf("page number = %v", cites[0].PageNumber)
	}
}

func Test_Store_AppendToMissingSession(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.AppendMessage(context.Background(), "alice", "no-such-session", Message{Role: RoleUser, Content: "hi"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func Test_Store_ListSessions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateSession(ctx, "alice", "professional_learning", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateSession(ctx, "alice", "classroom_curriculum", "second"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateSession(ctx, "bob", "professional_learning", "other user"); err != nil {
		t.Fatal(err)
	}

	sessions, err := s.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("want 2 sessions, got %d", len(sessions))
	}
	for _, sess := range sessions {
		if sess.UserID != "alice" {
			t.Errorf("foreign session leaked: %+v", sess)
		}
	}

	none, err := s.ListSessions(ctx, "carol")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("want no sessions, got %d", len(none))
	}
}

func Test_Store_DeleteSession(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "professional_learning", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendMessage(ctx, "alice", sess.ID, Message{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSession(ctx, "alice", sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "alice", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session survived delete: %v", err)
	}
	if err := s.DeleteSession(ctx, "alice", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound on double delete, got %v", err)
	}
}
