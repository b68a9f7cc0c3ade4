// Package budget provides token estimation and context trimming for coachai.
// The same estimator serves two masters: the ingestion chunker sizes document
// chunks against a token budget, and the turn orchestrator keeps the assembled
// prompt inside the model's context window. Because multiple LLM and embedding
// backends with different tokenizers are supported, estimation uses a
// character heuristic: 1 token ≈ 4 characters of English prose. The heuristic
// deliberately rounds down so downstream request-size limits keep headroom.
package budget

import (
	"strings"
	"unicode"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	// 4 chars/token is the standard figure for English text.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input budget for an assembled
	// prompt (persona + history + citation context + query). Sized for 8k
	// context models with room left for the response.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s.
// Non-empty strings always count as at least one token.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateWords returns a token estimate that never undercounts whitespace
// separated words: every word is at least one token. The chunker uses this
// variant so short sentence units still consume budget.
func EstimateWords(s string) int {
	words := strings.FieldsFunc(s, unicode.IsSpace)
	n := Estimate(s)
	if len(words) > n {
		return len(words)
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, including a small per-message envelope overhead.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Chat APIs charge roughly 4 tokens of framing per message.
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimHistory drops the oldest messages from history until fixed + history
// fits within maxTokens. fixed holds messages that must survive (persona,
// citation context, current query); history holds prior turns. If even an
// empty history exceeds the budget the empty slice is returned — fixed
// messages are never dropped here.
func TrimHistory(fixed, history []*schema.Message, maxTokens int) []*schema.Message {
	if len(history) == 0 {
		return history
	}

	fixedTokens := EstimateMessages(fixed)

	// History is at most a few dozen messages, a linear scan is fine.
	for len(history) > 0 {
		if fixedTokens+EstimateMessages(history) <= maxTokens {
			break
		}
		history = history[1:]
	}
	return history
}
