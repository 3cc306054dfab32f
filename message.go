package ctxpress

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation entry. Messages are treated as immutable:
// the engine never modifies one in place, it only builds new slices. Ordering
// within a slice is conversation order and is always preserved in output.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`

	// Name carries the tool name for RoleTool messages, or an optional
	// participant name for other roles.
	Name string `json:"name,omitempty"`

	// IsSummary marks messages produced by a previous compression pass.
	IsSummary bool `json:"is_summary,omitempty"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewToolMessage creates a tool result message. Tool messages are kept
// adjacent to the assistant message that requested them during trimming.
func NewToolMessage(name, content string) Message {
	msg := NewMessage(RoleTool, content)
	msg.Name = name
	return msg
}

// NewSummaryMessage wraps summary text as a system message so it survives
// later compression passes with its role intact.
func NewSummaryMessage(content string) Message {
	msg := NewMessage(RoleSystem, content)
	msg.IsSummary = true
	return msg
}
