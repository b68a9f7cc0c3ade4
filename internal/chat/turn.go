package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/edukit/coachai-go/internal/agent"
	"github.com/edukit/coachai-go/internal/logging"
	"github.com/edukit/coachai-go/internal/rag"
	"github.com/edukit/coachai-go/internal/store"
)

// ErrGenerationFailed classifies LLM invocation failures, both at stream
// start and mid-stream.
var ErrGenerationFailed = errors.New("generation failed")

// ErrPersistenceFailed classifies background transcript-write failures. It
// never fails the turn: the reply the user already saw stands, only the
// persistence handle reports it.
var ErrPersistenceFailed = errors.New("persistence failed")

// persistTimeout bounds the detached background write so a wedged database
// cannot leak goroutines.
const persistTimeout = 30 * time.Second

// CitationRetriever turns a query into scored citations for an agent's slice
// of the knowledge base. *rag.Retriever satisfies it.
type CitationRetriever interface {
	Retrieve(ctx context.Context, query, agentID string, topK int) ([]rag.Citation, error)
}

// Config holds the dependencies and tuning knobs for an Orchestrator.
type Config struct {
	// Model is the chat completion backend.
	Model model.BaseChatModel

	// Agents resolves agent ids to personas and retrieval filters.
	Agents *agent.Registry

	// Retriever supplies citations for each turn.
	Retriever CitationRetriever

	// Sessions persists transcripts.
	Sessions store.SessionStore

	// TopK is the number of citations retrieved per turn. Defaults to 5.
	TopK int

	// MaxHistoryPairs is the number of prior exchanges replayed into the
	// prompt. Defaults to DefaultMaxHistoryPairs.
	MaxHistoryPairs int

	// MaxContextTokens is the token budget for the assembled prompt.
	// Defaults to budget.DefaultMaxContextTokens.
	MaxContextTokens int
}

// Orchestrator runs coaching turns end to end.
type Orchestrator struct {
	model     model.BaseChatModel
	agents    *agent.Registry
	retriever CitationRetriever
	sessions  store.SessionStore

	topK             int
	maxHistoryPairs  int
	maxContextTokens int
}

// NewOrchestrator constructs an Orchestrator from the given config.
func NewOrchestrator(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("chat: config must not be nil")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat: model must not be nil")
	}
	if cfg.Agents == nil {
		return nil, fmt.Errorf("chat: agent registry must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("chat: retriever must not be nil")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("chat: session store must not be nil")
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	pairs := cfg.MaxHistoryPairs
	if pairs <= 0 {
		pairs = DefaultMaxHistoryPairs
	}

	return &Orchestrator{
		model:            cfg.Model,
		agents:           cfg.Agents,
		retriever:        cfg.Retriever,
		sessions:         cfg.Sessions,
		topK:             topK,
		maxHistoryPairs:  pairs,
		maxContextTokens: cfg.MaxContextTokens,
	}, nil
}

// Request describes one coaching turn.
type Request struct {
	// UserID scopes session access.
	UserID string
	// SessionID continues an existing session when set; empty creates one.
	SessionID string
	// AgentID selects the coaching persona.
	AgentID string
	// Message is the user's query.
	Message string
}

// Reply is the result of a blocking turn.
type Reply struct {
	// SessionID is the session the turn ran in (possibly just created).
	SessionID string `json:"session_id"`
	// MessageID is the id of the persisted assistant message.
	MessageID string `json:"message_id"`
	// AgentID is the persona that answered.
	AgentID string `json:"agent_id"`
	// Content is the full assistant response.
	Content string `json:"response"`
	// Citations are the sources retrieved for this turn.
	Citations []rag.Citation `json:"citations"`
	// Persisted reports the outcome of the background transcript write. It
	// is closed once the write finishes; a received error wraps
	// ErrPersistenceFailed.
	Persisted <-chan error `json:"-"`
}

// turnState carries the resolved inputs of a turn from preparation to
// generation.
type turnState struct {
	agent     agent.Config
	session   store.Session
	citations []rag.Citation
	prompt    []*schema.Message
}

// prepare resolves the agent, ensures the session, loads and windows the
// transcript, retrieves citations, and assembles the prompt. Failures come
// back carrying their taxonomy sentinel (agent.ErrUnknownAgent,
// store.ErrSessionNotFound, rag.ErrRetrievalFailed) before any model cost is
// incurred.
func (o *Orchestrator) prepare(ctx context.Context, req Request) (*turnState, error) {
	agentCfg, err := o.agents.Resolve(req.AgentID)
	if err != nil {
		return nil, err
	}

	var (
		session store.Session
		history []*schema.Message
	)
	if req.SessionID == "" {
		session, err = o.sessions.CreateSession(ctx, req.UserID, req.AgentID, "")
		if err != nil {
			return nil, fmt.Errorf("chat: creating session: %w", err)
		}
	} else {
		session, err = o.sessions.GetSession(ctx, req.UserID, req.SessionID)
		if err != nil {
			return nil, err
		}
		transcript, err := o.sessions.Messages(ctx, req.UserID, req.SessionID)
		if err != nil {
			return nil, err
		}
		history = Window(historyMessages(transcript), o.maxHistoryPairs)
	}

	citations, err := o.retriever.Retrieve(ctx, req.Message, req.AgentID, o.topK)
	if err != nil {
		return nil, err
	}

	return &turnState{
		agent:     agentCfg,
		session:   session,
		citations: citations,
		prompt:    BuildMessages(agentCfg.SystemPrompt, history, citations, req.Message, o.maxContextTokens),
	}, nil
}

// Complete runs a blocking turn and returns the full reply. The transcript
// write happens in the background; await Reply.Persisted when durability
// matters before responding.
func (o *Orchestrator) Complete(ctx context.Context, req Request) (*Reply, error) {
	state, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := o.model.Generate(ctx, state.prompt)
	if err != nil {
		return nil, fmt.Errorf("chat: %w: %w", ErrGenerationFailed, err)
	}

	messageID := uuid.NewString()
	persisted := o.persist(ctx, state, req.Message, messageID, out.Content)

	return &Reply{
		SessionID: state.session.ID,
		MessageID: messageID,
		AgentID:   state.agent.ID,
		Content:   out.Content,
		Citations: state.citations,
		Persisted: persisted,
	}, nil
}

// Stream runs a streaming turn, delivering frames through emit in order:
// one citations frame, zero or more content frames, then exactly one
// terminal frame (done or error). An emit failure means the consumer is
// gone: generation stops and the partial response is still persisted.
// The returned channel reports the background transcript write.
func (o *Orchestrator) Stream(ctx context.Context, req Request, emit func(Event) error) (<-chan error, error) {
	state, err := o.prepare(ctx, req)
	if err != nil {
		_ = emit(Event{Type: EventError, Error: err.Error()})
		return nil, err
	}

	// The assistant message id is fixed up front so the client can correlate
	// frames with the transcript before the background write lands.
	messageID := uuid.NewString()

	if err := emit(Event{Type: EventCitations, Citations: state.citations, SessionID: state.session.ID, MessageID: messageID}); err != nil {
		return nil, fmt.Errorf("chat: emitting citations: %w", err)
	}

	sr, err := o.model.Stream(ctx, state.prompt)
	if err != nil {
		err = fmt.Errorf("chat: %w: %w", ErrGenerationFailed, err)
		_ = emit(Event{Type: EventError, Error: err.Error()})
		return nil, err
	}
	defer sr.Close()

	var content strings.Builder
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = fmt.Errorf("chat: %w: %w", ErrGenerationFailed, err)
			_ = emit(Event{Type: EventError, Error: err.Error()})
			// The user saw a partial answer; keep what was delivered.
			return o.persist(ctx, state, req.Message, messageID, content.String()), err
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		content.WriteString(chunk.Content)
		if err := emit(Event{Type: EventContent, Content: chunk.Content}); err != nil {
			return o.persist(ctx, state, req.Message, messageID, content.String()),
				fmt.Errorf("chat: consumer gone: %w", err)
		}
	}

	// The done frame closes the stream before the transcript write starts;
	// clients observe a complete reply first, durability follows.
	emitErr := emit(Event{Type: EventDone})
	persisted := o.persist(ctx, state, req.Message, messageID, content.String())
	if emitErr != nil {
		return persisted, fmt.Errorf("chat: emitting done: %w", emitErr)
	}
	return persisted, nil
}

// persist writes the turn's user and assistant messages in a detached
// goroutine so a closed client connection cannot cancel the write. The
// returned channel is closed when the write completes; failures wrap
// ErrPersistenceFailed and are logged, never surfaced to the turn itself.
func (o *Orchestrator) persist(ctx context.Context, state *turnState, userText, assistantID, assistantText string) <-chan error {
	log := logging.FromContext(ctx)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)

	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer cancel()

		var errs []error
		if _, err := o.sessions.AppendMessage(pctx, state.session.UserID, state.session.ID, store.Message{
			Role:    store.RoleUser,
			Content: userText,
		}); err != nil {
			errs = append(errs, err)
		}
		if assistantText != "" {
			if _, err := o.sessions.AppendMessage(pctx, state.session.UserID, state.session.ID, store.Message{
				ID:        assistantID,
				Role:      store.RoleAssistant,
				Content:   assistantText,
				Citations: state.citations,
			}); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			err := fmt.Errorf("chat: %w: %w", ErrPersistenceFailed, errors.Join(errs...))
			log.Warn("transcript write failed",
				slog.String("session_id", state.session.ID),
				slog.Any("error", err),
			)
			done <- err
		}
	}()
	return done
}
