package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/middleware"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/service"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

const msgMessageRequired = "Mensaje y sessionId son requeridos"

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log,
	}
}

// decodeChatRequest reads and validates a chat request, writing a 400 on
// failure.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	if strings.TrimSpace(req.Message) == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, msgMessageRequired)
		return nil, false
	}
	for _, validate := range []func() error{
		func() error { return middleware.ValidateMessageContent(req.Message) },
		func() error { return middleware.ValidateSessionID(req.SessionID) },
		func() error { return middleware.ValidateHistory(req.ConversationHistory) },
	} {
		if err := validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
	}
	return &req, true
}

// SendMessage handles POST /chat/message
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	reply, err := h.chat.Reply(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to answer message",
			zap.String("session_id", req.SessionID),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.Response{
		Success:   true,
		Data:      reply,
		SessionID: req.SessionID,
	})
}

// GetHistory handles GET /chat/history/{sessionId}
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hist, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to get history", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener historial")
		return
	}

	writeJSON(w, http.StatusOK, model.OK(hist))
}

// ClearHistory handles DELETE /chat/history/{sessionId}
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.chat.ClearHistory(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to clear history", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al limpiar historial")
		return
	}

	writeJSON(w, http.StatusOK, &model.Response{
		Success:   true,
		Message:   "Historial limpiado exitosamente",
		SessionID: sessionID,
	})
}
