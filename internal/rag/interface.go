// Package rag defines the retrieval-augmented generation interfaces for
// coachai: embedding, vector storage with metadata-filtered similarity
// search, and the retriever that turns a query into citations. Concrete
// backends (Qdrant, the REST embedders) satisfy these interfaces so the
// chat layer never depends on a specific service.
package rag

import (
	"context"
	"errors"
)

// ErrRetrievalFailed classifies embedding or similarity-search service
// failures. Callers can distinguish "no matches" (empty slice, nil error)
// from "the service broke" (errors.Is(err, ErrRetrievalFailed)).
var ErrRetrievalFailed = errors.New("retrieval failed")

// Filter is a boolean-equality predicate over vector metadata flags.
// Every key must match its value exactly for a record to be considered.
// Agent scoping uses flags of the form "agent_<tag>": true.
type Filter map[string]bool

// Record is a unit of knowledge prepared for upsert into the vector index.
type Record struct {
	// ID is the logical record key, "<doc_name>_<chunk_index>".
	ID string

	// Metadata is the payload stored alongside the vector. For chunk records
	// it carries doc_name, doc_title, chunk_index, token_count, the chunk
	// text (truncated to 1000 chars), and one agent_<tag>=true flag per
	// agent affinity.
	Metadata map[string]any
}

// Match is a single similarity-search result, ordered by the index's own
// descending-similarity ranking.
type Match struct {
	// Score is the similarity score in [0, 1] for cosine distance.
	Score float32

	// Metadata is the stored payload of the matched record.
	Metadata map[string]any
}

// Citation is a retrieved chunk surfaced to the caller with source
// attribution. It is derived 1:1 from a Match and scoped to a single turn.
type Citation struct {
	// ID is a sequential label ("cite_1", "cite_2", ...) assigned in result
	// order, not the index's internal vector id.
	ID string `json:"id"`

	// SourceTitle is the human-readable document title.
	SourceTitle string `json:"source_title"`

	// PageNumber locates the passage within its source when known.
	PageNumber *int `json:"page_number,omitempty"`

	// ChunkText is the retrieved passage text.
	ChunkText string `json:"chunk_text"`

	// RelevanceScore is the similarity score in [0, 1].
	RelevanceScore float32 `json:"relevance_score"`
}

// VectorStore is the interface for persisting and searching embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of records with their pre-computed
	// embeddings. embeddings[i] is the vector for records[i].
	Upsert(ctx context.Context, records []Record, embeddings [][]float32) error

	// Search returns the top-k most similar records for queryEmbedding,
	// restricted to records whose metadata satisfies filter. A nil filter
	// searches the whole collection.
	Search(ctx context.Context, queryEmbedding []float32, filter Filter, topK int) ([]Match, error)

	// Delete removes records by their logical IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// FilterResolver maps an agent identifier to its retrieval filter.
// *agent.Registry satisfies it; the indirection keeps this package free of
// an agent-package dependency.
type FilterResolver interface {
	// MetadataFilter returns the filter scoping retrieval to the agent's
	// corpus, or agent.ErrUnknownAgent for unrecognised identifiers.
	MetadataFilter(agentID string) (Filter, error)
}
