package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	protected := Auth(secret)(RequireScope("edge:control")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "operator", GetSubject(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})))

	valid, err := IssueToken(secret, "operator", "edge:control")
	require.NoError(t, err)
	unscoped, err := IssueToken(secret, "operator", "read")
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "operator", "edge:control")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"bad signature", "Bearer " + forged, http.StatusUnauthorized},
		{"missing scope", "Bearer " + unscoped, http.StatusForbidden},
		{"valid", "Bearer " + valid, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/_edge/control", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLogging_SetsCorrelationID(t *testing.T) {
	var seen string
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
		okHandler(w, r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "fixed")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed", seen)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"retryAfter":60`)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("¿Qué es la gracia?"))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent(" \n\t"))
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", maxMessageLength+1)))
	assert.Error(t, ValidateMessageContent("\xff"))
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("b7f0a0f4-6d5e-4f0e-9c1a-1c2d3e4f5a6b"))
	assert.NoError(t, ValidateSessionID("session_1"))
	for _, id := range []string{"", "a.b", "a*", "a>", "a b", strings.Repeat("x", 129)} {
		assert.Error(t, ValidateSessionID(id), id)
	}
}

func TestValidateHistory(t *testing.T) {
	assert.NoError(t, ValidateHistory(nil))
	assert.NoError(t, ValidateHistory([]model.HistoryTurn{
		{Role: model.RoleUser, Content: "hola"},
		{Role: model.RoleAssistant, Content: "bienvenido"},
	}))
	assert.Error(t, ValidateHistory([]model.HistoryTurn{{Role: model.RoleSystem, Content: "x"}}))
	assert.Error(t, ValidateHistory(make([]model.HistoryTurn, maxHistoryLength+1)))
}

func TestValidateTopic(t *testing.T) {
	assert.NoError(t, ValidateTopic("La Soberanía de Dios"))
	assert.Error(t, ValidateTopic("  "))
	assert.Error(t, ValidateTopic(strings.Repeat("t", maxTopicLength+1)))
}
