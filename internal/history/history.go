// Package history stores the turns of each chat session.
package history

import (
	"context"
	"sync"

	"github.com/capitalize-ai/theology-chat/internal/model"
)

// Store persists session turns in insertion order.
type Store interface {
	// Append stores msg and returns its sequence.
	Append(ctx context.Context, msg *model.Message) (uint64, error)
	// List returns up to limit turns of a session, oldest first.
	List(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
	// Clear removes every turn of a session.
	Clear(ctx context.Context, sessionID string) error
	// Ready reports whether the backend can serve requests.
	Ready(ctx context.Context) error
}

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]model.Message
	seq      uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]model.Message)}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, msg *model.Message) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	stored := *msg
	stored.Sequence = s.seq
	s.sessions[msg.SessionID] = append(s.sessions[msg.SessionID], stored)
	return s.seq, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, sessionID string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]model.Message{}, msgs...), nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Ready implements Store.
func (s *MemoryStore) Ready(context.Context) error {
	return nil
}
