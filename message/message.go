package message

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Role represents the role of the message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation with a
// completion provider.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolID    string     `json:"tool_id,omitempty"` // For tool response messages
	CreatedAt time.Time  `json:"created_at"`
}

// ToolCall represents a tool invocation requested by the model. Args carries
// the raw JSON-encoded arguments exactly as the provider returned them so the
// caller can decide how strictly to decode.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// Text returns the message content.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return m.Content
}

// New creates a new message with the given role and content.
func New(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

var counter atomic.Int64

func generateID() string {
	return fmt.Sprintf("msg_%d_%d", time.Now().UnixNano(), counter.Add(1))
}
