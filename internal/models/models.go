package models

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single entry in a conversation timeline. A message is
// immutable once created; the conversation store owns the only sequence.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// ChatTurn is the reduced message shape sent to the agent on each turn.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body for POST /chat. Producto and Publico are
// optional hints the agent may use to steer its replies.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
	Producto string     `json:"producto,omitempty"`
	Publico  string     `json:"publico,omitempty"`
}

// ChatResponse carries the agent's reply messages for one turn.
type ChatResponse struct {
	Messages []Message `json:"messages"`
}
