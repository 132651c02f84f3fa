package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/lessonstore"
	"github.com/capitalize-ai/theology-chat/internal/llm"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/theology"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
	"github.com/capitalize-ai/theology-chat/pkg/metrics"
	"github.com/capitalize-ai/theology-chat/pkg/tracing"
)

const (
	lessonMaxTokens   = 1200
	lessonTemperature = 0.4
	archiveLimit      = 30
)

// LessonArchive stores generated lessons.
type LessonArchive interface {
	Save(ctx context.Context, lesson *model.Lesson) error
	// Get returns lessonstore.ErrNotFound when topic has no lesson on date's day.
	Get(ctx context.Context, topic string, date time.Time) (*model.Lesson, error)
	List(ctx context.Context, limit int) ([]model.Lesson, error)
}

// LessonService generates and archives daily lessons.
type LessonService struct {
	llmClient llm.Client
	archive   LessonArchive
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewLessonService creates a lesson service. archive may be nil.
func NewLessonService(llmClient llm.Client, archive LessonArchive, log *logger.Logger) *LessonService {
	return &LessonService{
		llmClient: llmClient,
		archive:   archive,
		logger:    log.Named("lessons"),
		tracer:    tracing.Tracer("theology-chat/service"),
	}
}

// Daily returns today's lesson on topic, generating and archiving it on
// first request.
func (s *LessonService) Daily(ctx context.Context, topic string) (*model.Lesson, error) {
	if lesson := s.archived(ctx, topic); lesson != nil {
		return lesson, nil
	}
	if s.llmClient == nil {
		return nil, llm.ErrNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "lesson.daily", trace.WithAttributes(
		attribute.String("lesson.topic", topic),
	))
	defer span.End()

	start := time.Now()
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		System: theology.SystemPrompt,
		Messages: []llm.ChatMessage{
			{Role: string(model.RoleUser), Content: theology.LessonPrompt(topic)},
		},
		MaxTokens:   lessonMaxTokens,
		Temperature: lessonTemperature,
	})
	if err != nil {
		metrics.RecordLLM(s.llmClient.DefaultModel(), "lesson", "error", time.Since(start).Seconds(), 0, 0)
		metrics.LessonsGeneratedTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.logger.Error("lesson generation failed", zap.String("topic", topic), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	metrics.RecordLLM(resp.Model, "lesson", "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	metrics.LessonsGeneratedTotal.WithLabelValues("success").Inc()

	content := resp.Content
	if strings.TrimSpace(content) == "" {
		content = theology.EmptyAnswer
	}
	lesson := &model.Lesson{
		Content: content,
		Topic:   topic,
		Date:    time.Now().UTC(),
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, lesson); err != nil {
			s.logger.Warn("failed to archive lesson", zap.String("topic", topic), zap.Error(err))
		}
	}
	return lesson, nil
}

func (s *LessonService) archived(ctx context.Context, topic string) *model.Lesson {
	if s.archive == nil {
		return nil
	}
	lesson, err := s.archive.Get(ctx, topic, time.Now())
	if err != nil {
		if !errors.Is(err, lessonstore.ErrNotFound) {
			s.logger.Warn("failed to read lesson archive", zap.String("topic", topic), zap.Error(err))
		}
		return nil
	}
	metrics.LessonsGeneratedTotal.WithLabelValues("archived").Inc()
	return lesson
}

// Topics returns the fixed lesson topics.
func (s *LessonService) Topics() []string {
	return theology.Topics()
}

// Archive returns archived lessons, newest first. Without an archive it
// returns an empty list.
func (s *LessonService) Archive(ctx context.Context) ([]model.Lesson, error) {
	if s.archive == nil {
		return []model.Lesson{}, nil
	}
	lessons, err := s.archive.List(ctx, archiveLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}
