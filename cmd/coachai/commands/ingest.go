package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/edukit/coachai-go/internal/embedder"
	"github.com/edukit/coachai-go/internal/ingestion"
	"github.com/edukit/coachai-go/internal/logging"
)

// NewIngestCmd constructs the `coachai ingest` command, which runs the
// document ingestion pipeline to populate the vector store.
func NewIngestCmd() *cobra.Command {
	var dir string
	var chunkSize int
	var chunkOverlap int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest coaching documents into the vector store",
		Long: `Chunk, tag, embed, and index the coaching document library into Qdrant.

Each .txt file in the source directory is cleaned, split into overlapping
chunks, tagged with the coaching personas it serves, embedded, and upserted.
Re-running ingestion overwrites existing chunks in place.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: coachai-docs)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  EMBEDDING_PROVIDER   Embedding backend: openai, azure, ollama (default: openai)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  coachai ingest --dir ./documents
  coachai ingest --dir ./documents --chunk-size 600 --chunk-overlap 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if dir == "" {
				return fmt.Errorf("ingest: --dir is required")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised",
				slog.String("provider", getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "openai"))))

			store, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer store.Close()

			if chunkSize == 0 {
				chunkSize = getEnvInt("CHUNK_SIZE", 0)
			}
			if chunkOverlap == 0 {
				chunkOverlap = getEnvInt("CHUNK_OVERLAP", 0)
			}

			pipeline, err := ingestion.NewPipeline(emb, store, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			log.Info("starting ingestion", slog.String("dir", dir))

			manifest, err := pipeline.IngestDir(ctx, dir)
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("documents", manifest.Documents),
				slog.Int("chunks", manifest.Chunks),
				slog.Int("skipped", len(manifest.Skipped)),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory of .txt documents to ingest")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Token budget per chunk (default: 400)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "Token overlap between adjacent chunks (default: 50)")

	return cmd
}
