package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/theology-chat/internal/config"
	"github.com/capitalize-ai/theology-chat/internal/history"
	"github.com/capitalize-ai/theology-chat/internal/llm"
	"github.com/capitalize-ai/theology-chat/internal/llm/llmtest"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/service"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

type testServer struct {
	handler http.Handler
	history *history.MemoryStore
}

func newTestServer(t *testing.T, client llm.Client, rateLimit int) *testServer {
	t.Helper()
	log := logger.NewNop()
	store := history.NewMemoryStore()
	chat := service.NewChatService(client, store, log)
	lessons := service.NewLessonService(client, nil, log)

	return &testServer{
		history: store,
		handler: NewRouter(RouterOptions{
			Chat:              NewChatHandler(chat, log),
			Lessons:           NewLessonsHandler(lessons, log),
			Health:            NewHealthHandler(map[string]Checker{"history": store}),
			PWA:               config.DefaultPWA,
			Logger:            log,
			RateLimitRequests: rateLimit,
			RateLimitWindow:   time.Minute,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSendMessage(t *testing.T) {
	srv := newTestServer(t, &llmtest.Fake{Reply: "Cristo es el mediador."}, 0)

	for _, prefix := range APIPrefixes {
		t.Run(prefix, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, prefix+"/chat/message",
				`{"message":"¿Quién es Cristo?","sessionId":"abc","conversationHistory":[{"role":"user","content":"hola"}]}`)
			require.Equal(t, http.StatusOK, rec.Code)

			body := decodeResponse(t, rec)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "abc", body["sessionId"])
			data := body["data"].(map[string]any)
			assert.Equal(t, "Cristo es el mediador.", data["message"])
			assert.Equal(t, "Cristología", data["category"])
			assert.NotEmpty(t, data["timestamp"])
		})
	}
}

func TestSendMessage_BadRequest(t *testing.T) {
	fake := &llmtest.Fake{Reply: "ok"}
	srv := newTestServer(t, fake, 0)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"message":`},
		{"missing message", `{"sessionId":"abc"}`},
		{"blank message", `{"message":"   ","sessionId":"abc"}`},
		{"missing session", `{"message":"hola"}`},
		{"bad session", `{"message":"hola","sessionId":"a.b"}`},
		{"bad history role", `{"message":"hola","sessionId":"abc","conversationHistory":[{"role":"system","content":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/chat/message", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, decodeResponse(t, rec)["success"])
		})
	}

	assert.Empty(t, fake.Requests())
	msgs, err := srv.history.List(context.Background(), "abc", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendMessage_ServiceErrors(t *testing.T) {
	rec := newTestServer(t, nil, 0).do(t, http.MethodPost, "/api/chat/message", `{"message":"hola","sessionId":"abc"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "OpenAI API key not configured", decodeResponse(t, rec)["error"])

	rec = newTestServer(t, &llmtest.Fake{Err: errors.New("timeout")}, 0).
		do(t, http.MethodPost, "/api/chat/message", `{"message":"hola","sessionId":"abc"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Servicio de IA temporalmente no disponible", decodeResponse(t, rec)["error"])
}

func TestHistory(t *testing.T) {
	srv := newTestServer(t, &llmtest.Fake{Reply: "respuesta"}, 0)

	rec := srv.do(t, http.MethodPost, "/api/chat/message", `{"message":"hola","sessionId":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/chat/history/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Success bool          `json:"success"`
		Data    model.History `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "abc", got.Data.SessionID)
	require.Len(t, got.Data.Messages, 2)
	assert.Equal(t, "respuesta", got.Data.Messages[1].Content)

	rec = srv.do(t, http.MethodDelete, "/api/chat/history/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Historial limpiado exitosamente", body["message"])
	assert.Equal(t, "abc", body["sessionId"])

	rec = srv.do(t, http.MethodGet, "/api/chat/history/abc", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Data.Messages)
}

func TestStream(t *testing.T) {
	srv := newTestServer(t, &llmtest.Fake{Reply: "El Espíritu Santo"}, 0)

	rec := srv.do(t, http.MethodPost, "/api/chat/stream", `{"message":"¿Quién es el Espíritu?","sessionId":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"token", "token", "token", "message_complete", "done"}, events)
}

func TestStream_Error(t *testing.T) {
	srv := newTestServer(t, &llmtest.Fake{Err: errors.New("down")}, 0)

	rec := srv.do(t, http.MethodPost, "/api/chat/stream", `{"message":"hola","sessionId":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: error")
	assert.Contains(t, rec.Body.String(), "Servicio de IA temporalmente no disponible")
}

func TestLessons(t *testing.T) {
	srv := newTestServer(t, &llmtest.Fake{Reply: "Título: La Fe"}, 0)

	rec := srv.do(t, http.MethodGet, "/api/lessons/topics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeResponse(t, rec)["data"], 20)

	rec = srv.do(t, http.MethodPost, "/.netlify/functions/api/lessons/daily", `{"topic":"La Justificación por la Fe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Título: La Fe", data["content"])
	assert.Equal(t, "La Justificación por la Fe", data["topic"])
	assert.NotEmpty(t, data["date"])

	rec = srv.do(t, http.MethodPost, "/api/lessons/daily", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Tema de la lección es requerido", decodeResponse(t, rec)["error"])

	rec = srv.do(t, http.MethodGet, "/api/lessons/archive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeResponse(t, rec)["data"])
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil, 0)

	for _, path := range []string{"/health", "/api/health"} {
		rec := srv.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "OK", body["status"])
		assert.Equal(t, Version, body["version"])
		assert.Equal(t, "Juan Pereira y Maria de Pereira", body["authors"])
	}

	rec := srv.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewHealthHandler(map[string]Checker{
		"history": CheckerFunc(func(context.Context) error { return errors.New("nats is not connected") }),
	})
	rec = httptest.NewRecorder()
	down.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "nats is not connected")
}

func TestManifestAndNotFound(t *testing.T) {
	srv := newTestServer(t, nil, 0)

	rec := srv.do(t, http.MethodGet, "/manifest.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "es", body["lang"])
	assert.Equal(t, "standalone", body["display"])
	assert.Len(t, body["icons"], 8)

	rec = srv.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decodeResponse(t, rec)["success"])
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, nil, 2)

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodGet, "/api/lessons/topics", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := srv.do(t, http.MethodGet, "/.netlify/functions/api/lessons/topics", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.EqualValues(t, 60, decodeResponse(t, rec)["retryAfter"])
}
