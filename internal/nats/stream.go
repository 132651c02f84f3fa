package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/theology-chat/internal/model"
)

const (
	// StreamName is the name of the chat history stream.
	StreamName = "THEOLOGY_CHAT"

	// SubjectPrefix is the prefix for all chat subjects.
	SubjectPrefix = "chat"
)

// ErrNotConnected is returned by Ready while the connection is down.
var ErrNotConnected = errors.New("nats is not connected")

// HistoryStore keeps session history in a JetStream stream, one subject
// per session and role.
type HistoryStore struct {
	client *Client
	maxAge time.Duration
}

// NewHistoryStore creates a history store. maxAge bounds how long turns are
// retained; zero keeps the default of 30 days.
func NewHistoryStore(client *Client, maxAge time.Duration) *HistoryStore {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &HistoryStore{client: client, maxAge: maxAge}
}

// EnsureStream ensures the chat stream exists with proper configuration.
func (s *HistoryStore) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	// Purge stays allowed so that a session's history can be cleared.
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.maxAge,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		Description: "Theology chat session history",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a message.
func MessageSubject(sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.msg.%s", SubjectPrefix, sessionID, role)
}

// SessionFilter returns the filter subject for all messages in a session.
func SessionFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.msg.>", SubjectPrefix, sessionID)
}

// Append publishes a message to JetStream.
func (s *HistoryStore) Append(ctx context.Context, msg *model.Message) (uint64, error) {
	if strings.ContainsAny(msg.SessionID, ".*> ") || msg.SessionID == "" {
		return 0, fmt.Errorf("invalid session id %q", msg.SessionID)
	}
	subject := MessageSubject(msg.SessionID, msg.Role)

	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := s.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// List retrieves up to limit messages of a session, oldest first.
func (s *HistoryStore) List(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	js := s.client.JetStream()

	stream, err := js.Stream(ctx, StreamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := stream.Info(ctx, jetstream.WithSubjectFilter(SessionFilter(sessionID)))
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	var available uint64
	for _, n := range info.State.Subjects {
		available += n
	}
	messages := make([]model.Message, 0, available)
	if available == 0 {
		return messages, nil
	}

	consumer, err := stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject:     SessionFilter(sessionID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(int(available), jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	for msg := range batch.Messages() {
		var message model.Message
		if err := json.Unmarshal(msg.Data(), &message); err != nil {
			continue
		}

		if meta, err := msg.Metadata(); err == nil {
			message.Sequence = meta.Sequence.Stream
		}

		messages = append(messages, message)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("batch error: %w", err)
	}

	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Clear purges every message of a session.
func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	stream, err := s.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	if err := stream.Purge(ctx, jetstream.WithPurgeSubject(SessionFilter(sessionID))); err != nil {
		return fmt.Errorf("failed to purge session: %w", err)
	}
	return nil
}

// Ready reports whether the connection is up.
func (s *HistoryStore) Ready(context.Context) error {
	if !s.client.IsConnected() {
		return ErrNotConnected
	}
	return nil
}
