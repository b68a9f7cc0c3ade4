package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Feedback is a user's rating of one assistant message.
type Feedback struct {
	// ID is the feedback identifier, a server-generated UUID.
	ID string `json:"feedback_id"`
	// SessionID is the session the rated message belongs to.
	SessionID string `json:"session_id"`
	// MessageID is the assistant message being rated.
	MessageID string `json:"message_id"`
	// Rating is the score, 1 (poor) to 5 (excellent).
	Rating int `json:"rating"`
	// Comment is an optional free-text note.
	Comment string `json:"comment,omitempty"`
	// CreatedAt is when the feedback was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackStore records message ratings. SQLiteStore implements it; it is
// kept separate from SessionStore so transcript-only callers are not forced
// to carry it.
type FeedbackStore interface {
	// SubmitFeedback records fb for the user. The session must exist and
	// belong to the user, or ErrSessionNotFound is returned. The feedback's
	// ID and CreatedAt are assigned by the store.
	SubmitFeedback(ctx context.Context, userID string, fb Feedback) (Feedback, error)
}

// SubmitFeedback records a rating against a message in one of the user's
// sessions.
func (s *SQLiteStore) SubmitFeedback(ctx context.Context, userID string, fb Feedback) (Feedback, error) {
	// Rating a session the user does not own must look identical to rating
	// a missing one.
	if _, err := s.GetSession(ctx, userID, fb.SessionID); err != nil {
		return Feedback{}, err
	}

	fb.ID = uuid.NewString()
	fb.CreatedAt = time.Now()

	const q = `INSERT INTO feedback (id, user_id, session_id, message_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, fb.ID, userID, fb.SessionID, fb.MessageID, fb.Rating, fb.Comment, fb.CreatedAt.Unix()); err != nil {
		return Feedback{}, fmt.Errorf("store: submit feedback: %w", err)
	}
	return fb, nil
}
