package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edukit/coachai-go/internal/agent"
	"github.com/edukit/coachai-go/internal/chat"
	"github.com/edukit/coachai-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. Must be
	// long enough for streaming turns.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs GET /metrics.
	// If nil, a fresh registry is created.
	Registry *prometheus.Registry
}

// turnRunner is the interface the chat handlers call to run a coaching turn.
// *chat.Orchestrator satisfies it; tests inject a fake.
type turnRunner interface {
	// Complete runs a blocking turn.
	Complete(ctx context.Context, req chat.Request) (*chat.Reply, error)
	// Stream runs a streaming turn, delivering frames through emit.
	Stream(ctx context.Context, req chat.Request, emit func(chat.Event) error) (<-chan error, error)
}

// Server is the HTTP server exposing the coaching API.
type Server struct {
	// turns runs coaching turns; *chat.Orchestrator in production.
	turns turnRunner
	// agents lists and resolves coaching personas for GET /api/agents.
	agents *agent.Registry
	// sessions backs the session CRUD routes.
	sessions store.SessionStore
	// feedback records message ratings. Nil when the session store does not
	// implement store.FeedbackStore; the route is not registered then.
	feedback store.FeedbackStore
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat and POST /api/chat/stream.
type chatRequest struct {
	// Message is the user's query.
	Message string `json:"message"`
	// AgentID selects the coaching persona.
	AgentID string `json:"agent_id"`
	// SessionID continues an existing session; empty creates one.
	SessionID string `json:"session_id,omitempty"`
}

// feedbackRequest is the JSON body for POST /api/feedback.
type feedbackRequest struct {
	// SessionID is the session containing the rated message.
	SessionID string `json:"session_id"`
	// MessageID is the assistant message being rated.
	MessageID string `json:"message_id"`
	// Rating is the score, 1 to 5.
	Rating int `json:"rating"`
	// Comment is an optional note, at most 1000 characters.
	Comment string `json:"comment,omitempty"`
}

// feedbackResponse is the JSON response for POST /api/feedback.
type feedbackResponse struct {
	// FeedbackID identifies the stored feedback.
	FeedbackID string `json:"feedback_id"`
	// Message is a human-readable acknowledgement.
	Message string `json:"message"`
}

// createSessionRequest is the JSON body for POST /api/sessions.
type createSessionRequest struct {
	// AgentID selects the coaching persona for the new session.
	AgentID string `json:"agent_id"`
	// Title is the optional display title.
	Title string `json:"title,omitempty"`
}

// sessionListResponse is the JSON response for GET /api/sessions.
type sessionListResponse struct {
	// Sessions is the user's sessions, most recently accessed first.
	Sessions []store.Session `json:"sessions"`
}

// messagesResponse is the JSON response for GET /api/sessions/{id}/messages.
type messagesResponse struct {
	// SessionID identifies the transcript's session.
	SessionID string `json:"session_id"`
	// Messages is the transcript oldest-first.
	Messages []store.Message `json:"messages"`
}

// agentListResponse is the JSON response for GET /api/agents.
type agentListResponse struct {
	// Agents lists the available coaching personas.
	Agents []agent.Config `json:"agents"`
}

// errorResponse is the JSON error body for non-streaming endpoints.
type errorResponse struct {
	// Error is a human-readable failure description.
	Error string `json:"error"`
}
