// Package ingestion implements the document-to-knowledge-base pipeline.
// Raw documents are cleaned, split into token-budgeted overlapping chunks,
// tagged with agent affinity metadata, embedded, and upserted into the
// vector store. The pipeline is invoked by the `coachai ingest` CLI command
// and runs offline; query-time retrieval never touches this package.
package ingestion

import (
	"strings"

	"github.com/edukit/coachai-go/internal/budget"
)

// TokenCounter converts text to a token count. The counter must match the
// tokenizer of the embedding backend closely enough that chunk budgets and
// request-size limits do not drift apart.
type TokenCounter func(string) int

// Default chunking parameters, in tokens.
const (
	// DefaultChunkSize is the token budget per chunk.
	DefaultChunkSize = 400
	// DefaultOverlap is the token budget for the tail carried between
	// consecutive chunks.
	DefaultOverlap = 50
)

// Chunker splits cleaned document text into overlapping, token-bounded
// chunks along sentence-like boundaries.
type Chunker struct {
	// chunkSize is the maximum token count per chunk.
	chunkSize int
	// overlap is the maximum token count seeded from the previous chunk.
	overlap int
	// count estimates the token count of a piece of text.
	count TokenCounter
}

// NewChunker constructs a Chunker. Zero or negative sizes fall back to the
// defaults; a nil counter falls back to the budget package's word-floored
// character heuristic.
func NewChunker(chunkSize, overlap int, count TokenCounter) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 8
	}
	if count == nil {
		count = budget.EstimateWords
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap, count: count}
}

// Chunk splits text into ordered chunks.
//
// Sentence-like units are produced by splitting on blank lines and on
// terminal punctuation followed by whitespace; this is a cheap deterministic
// heuristic, not a sentence parser. Units are packed greedily while the
// cumulative token count stays within the chunk budget. When a chunk closes,
// the next one is seeded with a suffix of the closed chunk's units taken
// backwards until one more unit would exceed the overlap budget. A single
// unit larger than the whole chunk budget is split by words, left to right,
// with no overlap treatment.
//
// An empty document yields no chunks, and no chunk is ever emitted empty.
func (c *Chunker) Chunk(text string) []string {
	units := splitUnits(text)
	if len(units) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []string
		tokens  int
	)

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
			tokens = 0
		}
	}

	for _, unit := range units {
		unitTokens := c.count(unit)

		// An indivisible run larger than the whole budget: close the open
		// chunk and word-split the unit with no lookback.
		if unitTokens > c.chunkSize {
			flush()
			chunks = append(chunks, c.splitOversized(unit)...)
			continue
		}

		if tokens+unitTokens > c.chunkSize && len(current) > 0 {
			closed := current
			flush()
			current, tokens = c.overlapTail(closed)
		}

		current = append(current, unit)
		tokens += unitTokens
	}
	flush()

	return chunks
}

// overlapTail returns the suffix of the just-closed chunk's units that fits
// within the overlap budget, preserving order, along with its token count.
// The result may be empty when even the final unit alone exceeds the budget.
func (c *Chunker) overlapTail(closed []string) ([]string, int) {
	var (
		tail   []string
		tokens int
	)
	for i := len(closed) - 1; i >= 0; i-- {
		unitTokens := c.count(closed[i])
		if tokens+unitTokens > c.overlap {
			break
		}
		tail = append([]string{closed[i]}, tail...)
		tokens += unitTokens
	}
	return tail, tokens
}

// splitOversized splits a single over-budget unit into word-packed
// sub-chunks, strictly left to right.
func (c *Chunker) splitOversized(unit string) []string {
	var (
		chunks []string
		words  []string
		tokens int
	)
	for _, word := range strings.Fields(unit) {
		wordTokens := c.count(word)
		if tokens+wordTokens > c.chunkSize && len(words) > 0 {
			chunks = append(chunks, strings.Join(words, " "))
			words, tokens = nil, 0
		}
		words = append(words, word)
		tokens += wordTokens
	}
	if len(words) > 0 {
		chunks = append(chunks, strings.Join(words, " "))
	}
	return chunks
}

/// splitUnits segments cleaned text into sentence-like units: blank lines
// always end a unit, and ".", "!", "?" followed by whitespace end a unit
// within a line.
func splitUnits(text string) []string {
	var units []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, part := range splitSentences(line) {
			if part = strings.TrimSpace(part); part != "" {
				units = append(units, part)
			}
		}
	}
	return units
}

// splitSentences splits a single line on terminal punctuation followed by a
// space, keeping the punctuation with its sentence.
func splitSentences(line string) []string {
	marked := strings.NewReplacer(
		"! ", "!\x00",
		"? ", "?\x00",
		". ", ".\x00",
	).Replace(line)
	return strings.Split(marked, "\x00")
}
