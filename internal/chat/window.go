// Package chat orchestrates a coaching turn: resolve the agent, retrieve
// citations, assemble the prompt from the session transcript, invoke the LLM
// (blocking or streaming), and persist the completed exchange in the
// background. It owns the turn-level error taxonomy and the streaming event
// schema.
package chat

import (
	"github.com/cloudwego/eino/schema"

	"github.com/edukit/coachai-go/internal/store"
)

// DefaultMaxHistoryPairs is the default number of user/assistant exchanges
// replayed into the prompt.
const DefaultMaxHistoryPairs = 10

// Window returns the most recent maxPairs exchanges from msgs, preserving
// chronological order. The cut counts messages, not pairs, so an unpaired
// trailing message still fits; maxPairs <= 0 returns nil.
func Window(msgs []*schema.Message, maxPairs int) []*schema.Message {
	if maxPairs <= 0 {
		return nil
	}
	limit := maxPairs * 2
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}

// historyMessages converts a stored transcript into LLM messages. Citations
// are dropped here: the model sees only the spoken content of prior turns.
func historyMessages(msgs []store.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case store.RoleUser:
			out = append(out, schema.UserMessage(m.Content))
		case store.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		}
	}
	return out
}
