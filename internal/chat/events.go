package chat

import "github.com/edukit/coachai-go/internal/rag"

// Event types emitted over a streaming turn. Every stream begins with a
// citations event and ends with exactly one terminal event (done or error).
const (
	// EventCitations carries the turn's sources, sent before any content.
	EventCitations = "citations"
	// EventContent carries one incremental piece of assistant text.
	EventContent = "content"
	// EventDone terminates a successful stream.
	EventDone = "done"
	// EventError terminates a failed stream.
	EventError = "error"
)

// Event is one frame of a streaming turn, serialised as a JSON object per
// SSE data line.
type Event struct {
	// Type discriminates the frame: citations, content, done, or error.
	Type string `json:"type"`

	// Citations is set on citations frames.
	Citations []rag.Citation `json:"citations,omitempty"`

	// Content is set on content frames.
	Content string `json:"content,omitempty"`

	// SessionID identifies the session; set on citations frames so clients
	// learn server-created session ids.
	SessionID string `json:"session_id,omitempty"`

	// MessageID identifies the assistant message being streamed; set on
	// citations frames.
	MessageID string `json:"message_id,omitempty"`

	// Error is a human-readable failure description; set on error frames.
	Error string `json:"error,omitempty"`
}
