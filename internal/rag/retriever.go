package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edukit/coachai-go/internal/logging"
)

// Retriever answers "get citations for this query under this agent". It
// resolves the agent's metadata filter, embeds the query, runs the filtered
// similarity search, and maps each match to a Citation in rank order.
type Retriever struct {
	// filters resolves agent identifiers to retrieval filters.
	filters FilterResolver

	// embedder converts the query text to a dense vector.
	embedder Embedder

	// store performs the metadata-filtered similarity search.
	store VectorStore

	// defaultTopK is the result count used when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a Retriever from its three collaborators.
// defaultTopK sets the fallback result count for Retrieve calls with topK=0.
func NewRetriever(filters FilterResolver, embedder Embedder, store VectorStore, defaultTopK int) (*Retriever, error) {
	if filters == nil {
		return nil, fmt.Errorf("rag: filter resolver must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Retriever{
		filters:     filters,
		embedder:    embedder,
		store:       store,
		defaultTopK: defaultTopK,
	}, nil
}

// Retrieve returns the top-k citations for query under agentID.
// An unknown agent fails before any embedding call is issued; embedding and
// search failures wrap ErrRetrievalFailed so callers can tell a service
// outage apart from an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query, agentID string, topK int) ([]Citation, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	filter, err := r.filters.MetadataFilter(agentID)
	if err != nil {
		return nil, err
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query: %w: %w", ErrRetrievalFailed, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned no vector for query: %w", ErrRetrievalFailed)
	}

	matches, err := r.store.Search(ctx, embeddings[0], filter, topK)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search: %w: %w", ErrRetrievalFailed, err)
	}

	citations := make([]Citation, 0, len(matches))
	for i, m := range matches {
		citations = append(citations, citationFromMatch(i+1, m))
	}

	logging.FromContext(ctx).Debug("retrieval complete",
		slog.String("agent_id", agentID),
		slog.Int("citations", len(citations)),
	)
	return citations, nil
}

// citationFromMatch converts the n-th ranked match into a Citation.
//
// The metadata key fallback chains mirror the upstream index schema drift:
// several synonymous keys exist in older records, so each field is read from
// the first key present. A stricter schema would be preferable but would
// silently drop fields from legacy records.
func citationFromMatch(n int, m Match) Citation {
	c := Citation{
		ID:             fmt.Sprintf("cite_%d", n),
		SourceTitle:    metaString(m.Metadata, "doc_title", "source_title", "title"),
		ChunkText:      metaText(m.Metadata),
		RelevanceScore: m.Score,
	}
	if c.SourceTitle == "" {
		c.SourceTitle = "Unknown Source"
	}
	c.PageNumber = metaPage(m.Metadata)
	return c
}

// metaString returns the first non-empty string value among keys.
func metaString(md map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := md[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// metaText reads the chunk text with its fallback chain, defaulting to the
// empty string.
func metaText(md map[string]any) string {
	return metaString(md, "text", "content", "chunk_text")
}

// metaPage reads the page locator: page_number, then page, then the chunk
// index as a stand-in. Returns nil when no key is present.
func metaPage(md map[string]any) *int {
	for _, k := range []string{"page_number", "page", "chunk_index"} {
		if v, ok := md[k]; ok {
			if n, ok := asInt(v); ok {
				return &n
			}
		}
	}
	return nil
}

// asInt coerces the numeric representations that survive a round trip
// through a vector index payload.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
