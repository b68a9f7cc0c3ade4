package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/edukit/coachai-go/internal/agent"
	"github.com/edukit/coachai-go/internal/chat"
	"github.com/edukit/coachai-go/internal/embedder"
	"github.com/edukit/coachai-go/internal/logging"
	"github.com/edukit/coachai-go/internal/provider"
	"github.com/edukit/coachai-go/internal/rag"
	"github.com/edukit/coachai-go/internal/server"
	"github.com/edukit/coachai-go/internal/store"
	"github.com/edukit/coachai-go/internal/tracing"
)

// NewServeCmd constructs the `coachai serve` command, which starts the HTTP
// server exposing the coaching API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CoachAI HTTP server",
		Long: `Start the CoachAI HTTP server on localhost.

The server exposes a REST/SSE API: blocking and streaming chat, agent
discovery, session management, health/readiness probes, and Prometheus
metrics. A knowledge base must be ingested first with 'coachai ingest'.

Examples:
  coachai serve
  coachai serve --port 9090
  MODEL_PROVIDER=ollama coachai serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			host, port = bindAddress(cmd, host, port)

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			vectorStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer vectorStore.Close()

			agents := agent.NewRegistry()

			retriever, err := rag.NewRetriever(agents, emb, vectorStore, getEnvInt("RAG_TOP_K", 5))
			if err != nil {
				return fmt.Errorf("serve: failed to create retriever: %w", err)
			}

			// Open the session store. COACHAI_SESSIONS_DB overrides the
			// default path (~/.coachai/sessions.db).
			dbPath := os.Getenv("COACHAI_SESSIONS_DB")
			if dbPath == "" {
				dbPath, err = store.DefaultDBPath()
				if err != nil {
					return fmt.Errorf("serve: could not resolve session DB path: %w", err)
				}
			}
			sessions, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("serve: failed to open session store: %w", err)
			}
			defer func() { _ = sessions.Close() }()
			log.Info("session store opened", slog.String("path", dbPath))

			orchestrator, err := chat.NewOrchestrator(&chat.Config{
				Model:            chatModel,
				Agents:           agents,
				Retriever:        retriever,
				Sessions:         sessions,
				TopK:             getEnvInt("RAG_TOP_K", 5),
				MaxHistoryPairs:  getEnvInt("CHAT_MAX_HISTORY_PAIRS", chat.DefaultMaxHistoryPairs),
				MaxContextTokens: getEnvInt("RAG_MAX_CONTEXT_TOKENS", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create orchestrator: %w", err)
			}

			pingers := []server.Pinger{server.NewQdrantPinger(vectorStore)}
			if p := server.NewModelPinger(provider.NewHealthCheck(providerCfg), string(providerCfg.Backend)); p != nil {
				pingers = append(pingers, p)
			}

			srv, err := server.New(orchestrator, agents, sessions, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("COACHAI_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}

// bindAddress resolves the listen address. Explicit flags win, then the
// SERVER_HOST / SERVER_PORT environment (set directly or through the config
// file), then the flag defaults.
func bindAddress(cmd *cobra.Command, host string, port int) (string, int) {
	if !cmd.Flags().Changed("host") {
		host = getEnvOrDefault("SERVER_HOST", host)
	}
	if !cmd.Flags().Changed("port") {
		port = getEnvInt("SERVER_PORT", port)
	}
	return host, port
}
