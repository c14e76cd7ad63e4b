// Package model provides types for chat model operations.
package model

// Role of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a prior conversation turn, used for few-shot examples.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request represents a model inference request.
type Request struct {
	System      string    `json:"system,omitempty"`
	History     []Message `json:"history,omitempty"` // Sent between system and prompt
	Prompt      string    `json:"prompt"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response represents a model inference response.
type Response struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
	DurationMs int64  `json:"duration_ms"`
}
