// Package conversation holds the client-side chat state: a pure reducer over
// the message log and a Session that drives asynchronous sends through it.
package conversation

import (
	"time"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry of the visible log.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category,omitempty"`
}

// State is the conversation as the client sees it.
type State struct {
	Messages  []Message `json:"messages"`
	IsLoading bool      `json:"isLoading"`
	SessionID string    `json:"sessionId"`
}

// Action is a state transition understood by Reduce.
type Action interface {
	action()
}

// AddMessage appends a message to the log.
type AddMessage struct{ Message Message }

// SetLoading sets the loading flag.
type SetLoading struct{ Loading bool }

// ClearMessages empties the log.
type ClearMessages struct{}

// SetMessages replaces the log.
type SetMessages struct{ Messages []Message }

func (AddMessage) action()    {}
func (SetLoading) action()    {}
func (ClearMessages) action() {}
func (SetMessages) action()   {}

// Reduce returns the state that results from applying a to s. The input state
// and its message slice are never modified; unknown actions return s as is.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddMessage:
		msgs := make([]Message, len(s.Messages), len(s.Messages)+1)
		copy(msgs, s.Messages)
		s.Messages = append(msgs, a.Message)
	case SetLoading:
		s.IsLoading = a.Loading
	case ClearMessages:
		s.Messages = []Message{}
	case SetMessages:
		s.Messages = append([]Message{}, a.Messages...)
	}
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Messages = append([]Message{}, s.Messages...)
	return s
}
