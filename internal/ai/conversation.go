package ai

// Conversation is the append-only message log of one session. It is owned by
// a single Session and is not safe for concurrent use.
type Conversation struct {
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds msg to the end of the log.
func (c *Conversation) Append(msg Message) {
	if len(msg.ToolCalls) > 0 {
		msg.ToolCalls = append([]ToolCall(nil), msg.ToolCalls...)
	}
	c.messages = append(c.messages, msg)
}

// Snapshot returns a copy of every message in order. Callers may modify the
// returned slice without affecting the log.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	for i := range out {
		if len(out[i].ToolCalls) > 0 {
			out[i].ToolCalls = append([]ToolCall(nil), out[i].ToolCalls...)
		}
	}
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}
