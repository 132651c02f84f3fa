package model

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) *Response {
	return &Response{Success: true, Data: data}
}

// Fail builds an error envelope.
func Fail(err, message string) *Response {
	return &Response{Success: false, Error: err, Message: message}
}
