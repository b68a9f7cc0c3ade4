package chat

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/edukit/coachai-go/internal/budget"
	"github.com/edukit/coachai-go/internal/rag"
)

// noContextPlaceholder stands in for the knowledge-base block when retrieval
// returned nothing. The model is still asked to answer; it just has no
// sources to cite.
const noContextPlaceholder = "No relevant context found in the knowledge base."

// FormatContext renders citations as the numbered knowledge-base block of the
// user prompt. Entries are numbered in retrieval order and separated by blank
// lines; an empty slice renders the no-context placeholder.
func FormatContext(citations []rag.Citation) string {
	if len(citations) == 0 {
		return noContextPlaceholder
	}

	entries := make([]string, 0, len(citations))
	for i, c := range citations {
		if c.PageNumber != nil {
			entries = append(entries, fmt.Sprintf("[%d] %s (p.%d): %s", i+1, c.SourceTitle, *c.PageNumber, c.ChunkText))
		} else {
			entries = append(entries, fmt.Sprintf("[%d] %s: %s", i+1, c.SourceTitle, c.ChunkText))
		}
	}
	return strings.Join(entries, "\n\n")
}

// userPrompt builds the final user message wrapping the query with its
// retrieved context.
func userPrompt(citations []rag.Citation, query string) string {
	return fmt.Sprintf(
		"Context from knowledge base:\n%s\n\nUser Question: %s\n\nPlease provide a helpful response based on the context above. Include specific citations to support your answer.",
		FormatContext(citations), query,
	)
}

// BuildMessages assembles the full prompt: the agent's persona, the windowed
// session history, and the context-wrapped query. The persona and query are
// fixed; history is trimmed oldest-first when the whole prompt would exceed
// maxTokens.
func BuildMessages(systemPrompt string, history []*schema.Message, citations []rag.Citation, query string, maxTokens int) []*schema.Message {
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}

	fixed := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt(citations, query)),
	}
	history = budget.TrimHistory(fixed, history, maxTokens)

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, fixed[0])
	msgs = append(msgs, history...)
	msgs = append(msgs, fixed[1])
	return msgs
}
