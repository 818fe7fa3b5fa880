package types

import "time"

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ToolStatus string

const (
	ToolStatusRunning  ToolStatus = "running"
	ToolStatusComplete ToolStatus = "complete"
)

type ToolActivity struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      ToolStatus `json:"status"`
	Summary     string     `json:"summary,omitempty"`
}
