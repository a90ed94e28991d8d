package chat

import "strings"

// Message is one entry in a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// contextPrefix marks the synthetic messages that carry retrieval results into
// the generation stage. TruncateToBefore skips them when matching a query.
const contextPrefix = "Context: "

// History is the ordered message sequence for one conversation. It always
// begins with the introduction message and is never empty. Not safe for
// concurrent use; the conversation registry serializes turns.
type History struct {
	messages []Message
}

// NewHistory returns a history holding just the introduction message.
func NewHistory() *History {
	h := &History{}
	h.Reset()
	return h
}

// Append adds a message to the end of the history.
func (h *History) Append(role, content string) {
	h.messages = append(h.messages, Message{Role: role, Content: content})
}

// Reset replaces the history with just the introduction message and returns
// the introduction text.
func (h *History) Reset() string {
	h.messages = []Message{{Role: RoleAssistant, Content: IntroductionMessage}}
	return IntroductionMessage
}

// TruncateToBefore discards the most recent user message whose content equals
// query, and everything after it. Synthetic context messages never match.
// When no message matches, only the introduction message is kept.
func (h *History) TruncateToBefore(query string) {
	for i := len(h.messages) - 1; i >= 0; i-- {
		msg := h.messages[i]
		if msg.Role == RoleUser && !strings.HasPrefix(msg.Content, contextPrefix) && msg.Content == query {
			h.messages = h.messages[:i]
			return
		}
	}
	h.messages = h.messages[:1]
}

// Messages returns a copy of the full history.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Recent returns a copy of the last n messages.
func (h *History) Recent(n int) []Message {
	if n <= 0 || n >= len(h.messages) {
		return h.Messages()
	}
	out := make([]Message, n)
	copy(out, h.messages[len(h.messages)-n:])
	return out
}

// Len reports the number of messages in the history.
func (h *History) Len() int {
	return len(h.messages)
}

// renderHistory formats messages as "User:"/"Assistant:" lines for inclusion
// in a prompt.
func renderHistory(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Conversation history:\n")
	for _, msg := range messages {
		label := "Assistant"
		if msg.Role == RoleUser {
			label = "User"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
