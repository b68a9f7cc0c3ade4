package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/edukit/coachai-go/internal/logging"
	"github.com/edukit/coachai-go/internal/rag"
)

// metadataTextLimit caps the chunk text stored in vector metadata. The full
// text still drives the embedding; only the stored copy is truncated.
const metadataTextLimit = 1000

// embedBatchSize is the number of chunk texts sent per embedding request.
const embedBatchSize = 100

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the token budget per chunk. Defaults to DefaultChunkSize.
	ChunkSize int

	// ChunkOverlap is the token budget carried between consecutive chunks.
	// Defaults to DefaultOverlap.
	ChunkOverlap int

	// DocumentAgents overrides the document to agent-tag table. Nil uses
	// the built-in table.
	DocumentAgents map[string][]string

	// DocumentTitles overrides the document title table. Nil uses the
	// built-in table.
	DocumentTitles map[string]string
}

// Manifest summarises one completed ingestion run.
type Manifest struct {
	// Documents is the number of source files processed.
	Documents int
	// Chunks is the total number of chunks upserted.
	Chunks int
	// Skipped lists files that produced no chunks after cleaning.
	Skipped []string
}

// Pipeline orchestrates the read, clean, chunk, tag, embed, upsert flow for
// a directory of plain-text knowledge base documents.
type Pipeline struct {
	// embedder converts chunk texts into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// chunker splits cleaned text into token-budgeted chunks.
	chunker *Chunker

	// tagger attaches agent affinity and title metadata.
	tagger *Tagger
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		chunker:  NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, nil),
		tagger:   NewTagger(cfg.DocumentAgents, cfg.DocumentTitles, nil),
	}, nil
}

// IngestDir ingests every .txt file directly under dir, in name order, and
// returns a manifest of the run. Documents are processed sequentially and the
// first error aborts the run; already-upserted documents stay in the store
// since upserts are idempotent per chunk id.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Manifest, error) {
	log := logging.FromContext(ctx)

	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("ingestion: scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("ingestion: no .txt documents found in %s", dir)
	}
	sort.Strings(paths)

	manifest := &Manifest{}
	for _, path := range paths {
		docName := filepath.Base(path)

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ingestion: reading %s: %w", path, err)
		}

		n, err := p.ingestDocument(ctx, docName, string(raw))
		if err != nil {
			return nil, err
		}
		if n == 0 {
			log.Warn("document produced no chunks, skipping", "document", docName)
			manifest.Skipped = append(manifest.Skipped, docName)
			continue
		}

		log.Info("document ingested", "document", docName, "chunks", n)
		manifest.Documents++
		manifest.Chunks += n
	}

	log.Info("ingestion complete",
		"documents", manifest.Documents,
		"chunks", manifest.Chunks,
		"skipped", len(manifest.Skipped),
	)
	return manifest, nil
}

// ingestDocument cleans, chunks, tags, embeds, and upserts a single document,
// returning the number of chunks written.
func (p *Pipeline) ingestDocument(ctx context.Context, docName, raw string) (int, error) {
	// Clean first: list-marker normalisation keys off line starts, which
	// only settle once whitespace and zero-width characters are gone.
	text := PreserveStructure(CleanText(raw))
	chunks := p.tagger.Tag(docName, p.chunker.Chunk(text))
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := p.embedBatches(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("ingestion: embedding %s: %w", docName, err)
	}

	records := make([]rag.Record, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, rag.Record{
			ID:       chunkID(c.DocName, c.Index),
			Metadata: chunkMetadata(c),
		})
	}

	if err := p.store.Upsert(ctx, records, embeddings); err != nil {
		return 0, fmt.Errorf("ingestion: upserting %s: %w", docName, err)
	}
	return len(records), nil
}

// embedBatches embeds texts in fixed-size batches and concatenates the
// results in order.
func (p *Pipeline) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// chunkMetadata builds the vector payload for a chunk: descriptive fields for
// citation rendering plus one boolean agent_<tag> flag per agent tag for
// filtered retrieval.
func chunkMetadata(c Chunk) map[string]any {
	md := map[string]any{
		"doc_name":    c.DocName,
		"doc_title":   c.DocTitle,
		"chunk_index": c.Index,
		"token_count": c.TokenCount,
		"text":        truncate(c.Text, metadataTextLimit),
	}
	for _, tag := range c.AgentTags {
		md["agent_"+tag] = true
	}
	return md
}

// chunkID generates the stable logical id for a chunk. Re-ingesting the same
// document overwrites its previous chunks in place.
func chunkID(docName string, index int) string {
	return fmt.Sprintf("%s_%d", docName, index)
}

// truncate clips s to at most limit bytes on a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !isRuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
