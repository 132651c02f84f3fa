package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capitalize-ai/theology-chat/internal/llm"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/service"
)

// Error messages returned to clients.
const (
	msgNotConfigured  = "OpenAI API key not configured"
	msgLLMUnavailable = "Servicio de IA temporalmente no disponible"
	msgInternal       = "Error interno del servidor"
	msgInvalidBody    = "Cuerpo de la solicitud inválido"
	msgNotFound       = "Ruta no encontrada"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.Fail(message, ""))
}

// serviceError maps a service failure to its status and client message.
func serviceError(err error) (int, string) {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.Is(err, service.ErrLLMUnavailable):
		return http.StatusServiceUnavailable, msgLLMUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeServiceError writes the response for a service failure.
func writeServiceError(w http.ResponseWriter, err error) {
	status, message := serviceError(err)
	writeError(w, status, message)
}

// decodeJSON decodes a request body, rejecting malformed JSON.
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// NotFound answers unknown routes with a JSON body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}
