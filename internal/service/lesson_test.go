package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/theology-chat/internal/lessonstore"
	"github.com/capitalize-ai/theology-chat/internal/llm"
	"github.com/capitalize-ai/theology-chat/internal/llm/llmtest"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/theology"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

type memoryArchive struct {
	lessons []model.Lesson
	err     error
}

func (a *memoryArchive) Save(_ context.Context, lesson *model.Lesson) error {
	if a.err != nil {
		return a.err
	}
	a.lessons = append([]model.Lesson{*lesson}, a.lessons...)
	return nil
}

func (a *memoryArchive) Get(_ context.Context, topic string, date time.Time) (*model.Lesson, error) {
	day := date.UTC().Format("2006-01-02")
	for _, l := range a.lessons {
		if l.Topic == topic && l.Date.UTC().Format("2006-01-02") == day {
			lesson := l
			return &lesson, nil
		}
	}
	return nil, lessonstore.ErrNotFound
}

func (a *memoryArchive) List(_ context.Context, limit int) ([]model.Lesson, error) {
	if len(a.lessons) > limit {
		return a.lessons[:limit], nil
	}
	return a.lessons, nil
}

func TestLessonService_Daily(t *testing.T) {
	ctx := context.Background()
	fake := &llmtest.Fake{Reply: "Título: La Gracia"}
	archive := &memoryArchive{}
	svc := NewLessonService(fake, archive, logger.NewNop())

	lesson, err := svc.Daily(ctx, "La Gracia Irresistible")
	require.NoError(t, err)
	assert.Equal(t, "Título: La Gracia", lesson.Content)
	assert.Equal(t, "La Gracia Irresistible", lesson.Topic)
	assert.False(t, lesson.Date.IsZero())

	req := fake.Last()
	require.NotNil(t, req)
	assert.Equal(t, 1200, req.MaxTokens)
	assert.InDelta(t, 0.4, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, theology.LessonPrompt("La Gracia Irresistible"), req.Messages[0].Content)

	archived, err := svc.Archive(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "La Gracia Irresistible", archived[0].Topic)
}

func TestLessonService_DailyServesArchivedLesson(t *testing.T) {
	ctx := context.Background()
	fake := &llmtest.Fake{Reply: "Título: La Fe"}
	archive := &memoryArchive{lessons: []model.Lesson{
		{Topic: "La Fe", Content: "lección de ayer", Date: time.Now().UTC().AddDate(0, 0, -1)},
	}}
	svc := NewLessonService(fake, archive, logger.NewNop())

	first, err := svc.Daily(ctx, "La Fe")
	require.NoError(t, err)
	assert.Equal(t, "Título: La Fe", first.Content, "yesterday's lesson is not reused")

	second, err := svc.Daily(ctx, "La Fe")
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
	assert.Len(t, fake.Requests(), 1)

	withoutLLM := NewLessonService(nil, archive, logger.NewNop())
	third, err := withoutLLM.Daily(ctx, "La Fe")
	require.NoError(t, err)
	assert.Equal(t, "Título: La Fe", third.Content)
}

func TestLessonService_ArchiveFailureDoesNotFailLesson(t *testing.T) {
	svc := NewLessonService(&llmtest.Fake{Reply: "contenido"}, &memoryArchive{err: errors.New("disk full")}, logger.NewNop())

	lesson, err := svc.Daily(context.Background(), "La Fe")
	require.NoError(t, err)
	assert.Equal(t, "contenido", lesson.Content)
}

func TestLessonService_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewLessonService(nil, nil, logger.NewNop()).Daily(ctx, "La Fe")
	assert.ErrorIs(t, err, llm.ErrNotConfigured)

	_, err = NewLessonService(&llmtest.Fake{Err: errors.New("timeout")}, nil, logger.NewNop()).Daily(ctx, "La Fe")
	assert.ErrorIs(t, err, ErrLLMUnavailable)
}

func TestLessonService_TopicsAndEmptyArchive(t *testing.T) {
	svc := NewLessonService(nil, nil, logger.NewNop())
	assert.Len(t, svc.Topics(), 20)

	lessons, err := svc.Archive(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lessons)
	assert.Empty(t, lessons)
}
