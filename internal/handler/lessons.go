package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/middleware"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/service"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

// LessonsHandler handles daily lesson endpoints.
type LessonsHandler struct {
	lessons *service.LessonService
	logger  *logger.Logger
}

// NewLessonsHandler creates a new lessons handler.
func NewLessonsHandler(lessons *service.LessonService, log *logger.Logger) *LessonsHandler {
	return &LessonsHandler{
		lessons: lessons,
		logger:  log,
	}
}

// Daily handles POST /lessons/daily
func (h *LessonsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	var req model.LessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "Tema de la lección es requerido")
		return
	}
	if err := middleware.ValidateTopic(req.Topic); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lesson, err := h.lessons.Daily(r.Context(), req.Topic)
	if err != nil {
		h.logger.Error("failed to generate lesson", zap.String("topic", req.Topic), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.OK(lesson))
}

// Topics handles GET /lessons/topics
func (h *LessonsHandler) Topics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.OK(h.lessons.Topics()))
}

// Archive handles GET /lessons/archive
func (h *LessonsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.Archive(r.Context())
	if err != nil {
		h.logger.Error("failed to list lessons", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener lecciones")
		return
	}
	writeJSON(w, http.StatusOK, model.OK(lessons))
}
