package server

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/edukit/coachai-go/internal/store"
)

// maxFeedbackComment caps the free-text comment length in characters.
const maxFeedbackComment = 1000

// handleFeedback handles POST /api/feedback.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if body.SessionID == "" || body.MessageID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id and message_id are required"})
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rating must be between 1 and 5"})
		return
	}
	if utf8.RuneCountInString(body.Comment) > maxFeedbackComment {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "comment must be at most 1000 characters"})
		return
	}

	fb, err := s.feedback.SubmitFeedback(r.Context(), userID(r), store.Feedback{
		SessionID: body.SessionID,
		MessageID: body.MessageID,
		Rating:    body.Rating,
		Comment:   body.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedbackResponse{
		FeedbackID: fb.ID,
		Message:    "Feedback received successfully",
	})
}
