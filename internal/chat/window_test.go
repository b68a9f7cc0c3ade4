package chat

import (
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/edukit/coachai-go/internal/store"
)

func makeExchanges(pairs int) []*schema.Message {
	msgs := make([]*schema.Message, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		msgs = append(msgs,
			schema.UserMessage(fmt.Sprintf("question %d", i)),
			schema.AssistantMessage(fmt.Sprintf("answer %d", i), nil),
		)
	}
	return msgs
}

func Test_Window_KeepsRecentExchanges(t *testing.T) {
	t.Parallel()

	msgs := makeExchanges(8)
	got := Window(msgs, 3)

	if len(got) != 6 {
		t.Fatalf("want 6 messages, got %d", len(got))
	}
	if got[0].Content != "question 5" {
		t.Errorf("window starts at %q, want question 5", got[0].Content)
	}
	if got[5].Content != "answer 7" {
		t.Errorf("window ends at %q, want answer 7", got[5].Content)
	}
}

func Test_Window_ShortHistoryUntouched(t *testing.T) {
	t.Parallel()

	msgs := makeExchanges(2)
	if got := Window(msgs, 10); len(got) != 4 {
		t.Errorf("want all 4 messages, got %d", len(got))
	}
}

func Test_Window_UnpairedTrailingMessage(t *testing.T) {
	t.Parallel()

	msgs := append(makeExchanges(3), schema.UserMessage("dangling"))
	got := Window(msgs, 2)

	if len(got) != 4 {
		t.Fatalf("want 4 messages, got %d", len(got))
	}
	if got[3].Content != "dangling" {
		t.Errorf("trailing message lost, window ends at %q", got[3].Content)
	}
}

func Test_Window_ZeroPairs(t *testing.T) {
	t.Parallel()

	if got := Window(makeExchanges(3), 0); got != nil {
		t.Errorf("want nil, got %d messages", len(got))
	}
}

func Test_HistoryMessages_RolesAndOrder(t *testing.T) {
	t.Parallel()

	transcript := []store.Message{
		{Role: store.RoleUser, Content: "first"},
		{Role: store.RoleAssistant, Content: "second"},
		{Role: store.RoleUser, Content: "third"},
	}
	got := historyMessages(transcript)

	if len(got) != 3 {
		t.Fatalf("want 3 messages, got %d", len(got))
	}
	if got[0].Role != schema.User || got[1].Role != schema.Assistant || got[2].Role != schema.User {
		t.Errorf("roles = %v, %v, %v", got[0].Role, got[1].Role, got[2].Role)
	}
	if got[1].Content != "second" {
		t.Errorf("content order broken: %q", got[1].Content)
	}
}
