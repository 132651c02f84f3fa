package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/theology-chat/internal/model"
)

// ApologyText replaces the answer when a send fails.
const ApologyText = "Lo siento, hubo un error al procesar tu consulta. Por favor, intenta de nuevo."

// CategoryError labels the apology message.
const CategoryError = "Error"

var (
	// ErrEmptyMessage is returned for blank messages.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a previous send is still in flight.
	ErrBusy = errors.New("a message is already being processed")
)

// ChatSender delivers a message to the chat backend.
type ChatSender interface {
	SendMessage(ctx context.Context, message, sessionID string, history []model.HistoryTurn) (*model.ChatReply, error)
}

// Session drives the conversation for one client.
type Session struct {
	sender ChatSender
	now    func() time.Time

	mu    sync.Mutex
	state State
	// generation changes on Clear so that answers to messages sent before
	// the clear are dropped.
	generation uint64
	onChange   func(State)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock sets the time source used to stamp messages.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithOnChange registers a callback run with a snapshot after every change.
// It runs with the session locked and must not call back into the session.
func WithOnChange(fn func(State)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// NewSession starts an empty conversation with a fresh session id.
func NewSession(sender ChatSender, opts ...SessionOption) *Session {
	s := &Session{
		sender: sender,
		now:    time.Now,
		state: State{
			Messages:  []Message{},
			SessionID: uuid.NewString(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionID returns the id sent with every message.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Send appends text as a user message and asks the backend for an answer.
// It blocks until the answer (or the apology on failure) is in the log.
// Only rejections are returned as errors; backend failures are reported in
// the log, not to the caller.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	history := historyOf(s.state.Messages)
	sessionID := s.state.SessionID
	generation := s.generation
	s.apply(
		AddMessage{Message: s.newMessage(text, SenderUser, "")},
		SetLoading{Loading: true},
	)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.apply(SetLoading{Loading: false})
		s.mu.Unlock()
	}()

	reply, err := s.sender.SendMessage(ctx, text, sessionID, history)

	var answer Message
	if err != nil || reply == nil {
		answer = s.newMessage(ApologyText, SenderAssistant, CategoryError)
	} else {
		answer = s.newMessage(reply.Message, SenderAssistant, reply.Category)
	}

	s.mu.Lock()
	if s.generation == generation {
		s.apply(AddMessage{Message: answer})
	}
	s.mu.Unlock()
	return nil
}

// Clear empties the log. The session id and loading flag are kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.apply(ClearMessages{})
}

// apply runs actions through Reduce. Callers hold s.mu.
func (s *Session) apply(actions ...Action) {
	for _, a := range actions {
		s.state = Reduce(s.state, a)
	}
	if s.onChange != nil {
		s.onChange(s.state.Clone())
	}
}

func (s *Session) newMessage(text string, sender Sender, category string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
		Category:  category,
	}
}

// historyOf maps the log to the role/content pairs the backend expects.
func historyOf(msgs []Message) []model.HistoryTurn {
	turns := make([]model.HistoryTurn, 0, len(msgs))
	for _, m := range msgs {
		role := model.RoleAssistant
		if m.Sender == SenderUser {
			role = model.RoleUser
		}
		turns = append(turns, model.HistoryTurn{Role: role, Content: m.Text})
	}
	return turns
}
