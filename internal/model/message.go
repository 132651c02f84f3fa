// Package model defines the request, response and storage types shared by the API.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// HistoryTurn is one prior turn sent along with a chat message.
type HistoryTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat/message.
type ChatRequest struct {
	Message             string        `json:"message"`
	SessionID           string        `json:"sessionId"`
	ConversationHistory []HistoryTurn `json:"conversationHistory"`
}

// ChatReply is the assistant answer returned to the client.
type ChatReply struct {
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is a turn stored in a session's history.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Populated on read when the backend assigns sequences.
	Sequence uint64 `json:"sequence,omitempty"`
}

// History is the payload of GET /chat/history/{sessionId}.
type History struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
}
