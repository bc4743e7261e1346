package models

import "time"

// Message is one durable entry of a conversation's history.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	ToolCallID     string    `json:"tool_call_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateMessageRequest contains fields for persisting a message.
type CreateMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Role           Role   `json:"role"`
	Content        string `json:"content"`
	ToolCallID     string `json:"tool_call_id,omitempty"`
}
