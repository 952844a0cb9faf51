// Package handler provides HTTP request handlers.
//
// Every response, success or failure, is the same envelope:
//
//	{"status": "success"|"error", "data": ..., "message": "..."}
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/service"
	"github.com/taskflow/taskflow/internal/validation"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Messages shared by several handlers.
const (
	MsgNotFound         = "Resource not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidInput     = "Invalid input data."
	MsgUnauthorized     = "Unauthorized"
	MsgPayloadTooLarge  = "Request body too large."
	MsgInternalError    = "Internal server error"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// Handler serves the router fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, MsgNotFound, nil)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed, nil)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Status: StatusSuccess, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Status: StatusError, Data: data, Message: message})
}

// errorWriter converts service errors into envelopes at the HTTP boundary.
type errorWriter struct {
	logger *slog.Logger
	// notFound is the message for masked and missing entities.
	notFound string
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, MsgInvalidInput, verr.Fields)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, MsgPayloadTooLarge, nil)
	case errors.Is(err, service.ErrNotFound):
		msg := e.notFound
		if msg == "" {
			msg = MsgNotFound
		}
		writeError(w, http.StatusNotFound, msg, nil)
	case errors.Is(err, service.ErrNoCompletedTasks):
		writeError(w, http.StatusNotFound, "No completed tasks found", nil)
	case errors.Is(err, service.ErrHabitAlreadyCompleted):
		writeError(w, http.StatusConflict, "Habit already completed today", nil)
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "This email is associated with another account", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, MsgUnauthorized, nil)
	default:
		e.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("user_id", auth.UserIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, MsgInternalError, nil)
	}
}

// readBody reads the whole request body. Oversize bodies surface as
// *http.MaxBytesError.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(r.Body)
}

// queryInt reads a positive integer query parameter, or 0 when it is
// absent or malformed.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return 0
	}
	return v
}
