// Package server implements the HTTP server exposing the coaching assistant:
// blocking and streaming chat, agent discovery, session CRUD, health and
// readiness probes, and Prometheus metrics. The server is started by the
// `coachai serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edukit/coachai-go/internal/agent"
	"github.com/edukit/coachai-go/internal/chat"
	"github.com/edukit/coachai-go/internal/logging"
	"github.com/edukit/coachai-go/internal/rag"
	"github.com/edukit/coachai-go/internal/store"
)

// defaultUserID is assumed when a request carries no X-User-ID header. The
// assistant runs single-tenant by default; the header exists so a fronting
// proxy can fan out per-user.
const defaultUserID = "local"

// New constructs a Server from the provided turn runner and config.
func New(turns turnRunner, agents *agent.Registry, sessions store.SessionStore, cfg *Config) (*Server, error) {
	if turns == nil {
		return nil, fmt.Errorf("server: turn runner must not be nil")
	}
	if agents == nil {
		return nil, fmt.Errorf("server: agent registry must not be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("server: session store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must outlast the longest streaming turn.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		turns:    turns,
		agents:   agents,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(registry),
	}
	if fb, ok := sessions.(store.FeedbackStore); ok {
		s.feedback = fb
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL
	if cfg.APIKey == "" {
		log.Warn("COACHAI_API_KEY is not set, API authentication is disabled")
	}
	protect := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", protect("chat", s.handleChat))
	mux.Handle("POST /api/chat/stream", protect("chat_stream", s.handleChatStream))
	mux.Handle("GET /api/agents", protect("agents", s.handleAgents))
	mux.Handle("GET /api/sessions", protect("sessions_list", s.handleSessionList))
	mux.Handle("POST /api/sessions", protect("sessions_create", s.handleSessionCreate))
	mux.Handle("GET /api/sessions/{id}", protect("sessions_get", s.handleSessionGet))
	mux.Handle("GET /api/sessions/{id}/messages", protect("sessions_messages", s.handleSessionMessages))
	mux.Handle("DELETE /api/sessions/{id}", protect("sessions_delete", s.handleSessionDelete))
	if s.feedback != nil {
		mux.Handle("POST /api/feedback", protect("feedback", s.handleFeedback))
	}
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler, for tests driving it with
// httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// userID extracts the requesting user from the X-User-ID header, defaulting
// to the single-tenant user.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a turn or store error onto its HTTP status and writes the
// JSON error body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps the error taxonomy onto HTTP status codes: client mistakes
// are 4xx, broken dependencies are 502, everything else is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrUnknownAgent):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, rag.ErrRetrievalFailed), errors.Is(err, chat.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
