package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edukit/coachai-go/internal/chat"
)

// decodeChatRequest reads and validates the chat request body.
func decodeChatRequest(r *http.Request) (chat.Request, error) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return chat.Request{}, fmt.Errorf("invalid request body")
	}
	if body.Message == "" {
		return chat.Request{}, fmt.Errorf("message is required")
	}
	if body.AgentID == "" {
		return chat.Request{}, fmt.Errorf("agent_id is required")
	}
	return chat.Request{
		UserID:    userID(r),
		SessionID: body.SessionID,
		AgentID:   body.AgentID,
		Message:   body.Message,
	}, nil
}

// handleChat handles POST /api/chat: one blocking turn, full reply as JSON.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	reply, err := s.turns.Complete(r.Context(), req)
	s.observeTurn("blocking", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// handleChatStream handles POST /api/chat/stream: one streaming turn as
// Server-Sent Events. Each frame is a JSON event on a single SSE data line;
// the citations frame always precedes content, and the stream ends with
// exactly one done or error frame.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	sw := &sseWriter{w: w, flusher: flusher}

	start := time.Now()
	_, err = s.turns.Stream(r.Context(), req, sw.emit)
	s.observeTurn("stream", start, err)
	// Failures were already delivered in-stream as an error frame; there is
	// nothing useful left to write on a committed SSE response.
}

// sseWriter emits chat events as SSE data frames, flushing after each one.
type sseWriter struct {
	// w is the underlying response writer.
	w http.ResponseWriter
	// flusher flushes buffered data to the client after each frame.
	flusher http.Flusher
}

// emit writes one event as a single "data:" line. Events serialise to one
// JSON object with no embedded newlines, so no continuation lines are needed.
func (s *sseWriter) emit(e chat.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	s.flusher.Flush()
	return nil
}
