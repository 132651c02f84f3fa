// Package service provides business logic for the theology chat.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/history"
	"github.com/capitalize-ai/theology-chat/internal/llm"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/theology"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
	"github.com/capitalize-ai/theology-chat/pkg/metrics"
	"github.com/capitalize-ai/theology-chat/pkg/tracing"
)

// ErrLLMUnavailable wraps any failure of the LLM provider.
var ErrLLMUnavailable = errors.New("LLM provider unavailable")

const (
	chatMaxTokens   = 1000
	chatTemperature = 0.3
	historyLimit    = 200
)

// TokenCallback is called for each token during streaming.
type TokenCallback func(token string, index int) error

// ChatService answers chat messages and keeps session history.
type ChatService struct {
	llmClient llm.Client
	history   history.Store
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewChatService creates a new chat service. llmClient may be nil when no
// provider is configured; every reply then fails with llm.ErrNotConfigured.
func NewChatService(llmClient llm.Client, store history.Store, log *logger.Logger) *ChatService {
	if store == nil {
		store = history.NewMemoryStore()
	}
	return &ChatService{
		llmClient: llmClient,
		history:   store,
		logger:    log.Named("chat"),
		tracer:    tracing.Tracer("theology-chat/service"),
	}
}

// Reply answers a chat message.
func (s *ChatService) Reply(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error) {
	return s.reply(ctx, req, nil)
}

// ReplyStream answers a chat message, calling onToken for every token as it
// arrives.
func (s *ChatService) ReplyStream(ctx context.Context, req *model.ChatRequest, onToken TokenCallback) (*model.ChatReply, error) {
	return s.reply(ctx, req, onToken)
}

func (s *ChatService) reply(ctx context.Context, req *model.ChatRequest, onToken TokenCallback) (*model.ChatReply, error) {
	if s.llmClient == nil {
		return nil, llm.ErrNotConfigured
	}
	category := theology.Categorize(req.Message)

	ctx, span := s.tracer.Start(ctx, "chat.reply", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("chat.category", category),
		attribute.Int("chat.history_turns", len(req.ConversationHistory)),
		attribute.Bool("chat.stream", onToken != nil),
	))
	defer span.End()

	s.record(ctx, req.SessionID, model.RoleUser, req.Message, category)

	completion := &llm.CompletionRequest{
		System:      theology.SystemPrompt,
		Messages:    buildMessages(req),
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}

	start := time.Now()
	var (
		resp *llm.CompletionResponse
		err  error
	)
	kind := "complete"
	if onToken != nil {
		kind = "stream"
		resp, err = s.llmClient.CompleteStream(ctx, completion, llm.StreamCallback(onToken))
	} else {
		resp, err = s.llmClient.Complete(ctx, completion)
	}
	if err != nil {
		metrics.RecordLLM(s.llmClient.DefaultModel(), kind, "error", time.Since(start).Seconds(), 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.logger.Error("LLM completion failed",
			zap.String("session_id", req.SessionID),
			zap.String("provider", s.llmClient.Name()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	metrics.RecordLLM(resp.Model, kind, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)

	answer := resp.Content
	if strings.TrimSpace(answer) == "" {
		answer = theology.EmptyAnswer
	}
	s.record(ctx, req.SessionID, model.RoleAssistant, answer, category)

	return &model.ChatReply{
		Message:   answer,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}, nil
}

// buildMessages lays out the client history followed by the new message.
func buildMessages(req *model.ChatRequest) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(req.ConversationHistory)+1)
	for _, turn := range req.ConversationHistory {
		messages = append(messages, llm.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return append(messages, llm.ChatMessage{
		Role:    string(model.RoleUser),
		Content: req.Message,
	})
}

// record appends a turn to the session history. History is best effort: a
// failed write is logged and never fails the reply.
func (s *ChatService) record(ctx context.Context, sessionID string, role model.Role, content, category string) {
	metrics.ChatMessagesTotal.WithLabelValues(string(role), category).Inc()

	msg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.history.Append(ctx, msg); err != nil {
		s.logger.Warn("failed to record history",
			zap.String("session_id", sessionID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
}

// History returns the stored turns of a session.
func (s *ChatService) History(ctx context.Context, sessionID string) (*model.History, error) {
	messages, err := s.history.List(ctx, sessionID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return &model.History{SessionID: sessionID, Messages: messages}, nil
}

// ClearHistory removes every stored turn of a session.
func (s *ChatService) ClearHistory(ctx context.Context, sessionID string) error {
	if err := s.history.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	s.logger.Info("history cleared", zap.String("session_id", sessionID))
	return nil
}

// Ready reports whether the history backend is reachable.
func (s *ChatService) Ready(ctx context.Context) error {
	return s.history.Ready(ctx)
}
