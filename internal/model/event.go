package model

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// MessageCompleteEvent is sent once the assistant answer is final.
type MessageCompleteEvent struct {
	Reply     ChatReply `json:"reply"`
	SessionID string    `json:"sessionId"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
