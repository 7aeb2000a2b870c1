// internal/app/system/respond/respond.go

// Package respond writes the JSON bodies every API handler returns.
//
// Success payloads go out as-is; failures use the `{"message": "..."}` shape
// the SPA expects. ErrorLogger pairs the response with a zap log entry so
// handlers don't repeat log-then-write boilerplate.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes a `{"message": msg}` body with the given status code.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// ErrorLogger logs handler failures and writes the matching JSON response.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger backed by the given zap logger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

// BadRequest logs a client error and responds 400 with userMsg.
func (e *ErrorLogger) BadRequest(w http.ResponseWriter, r *http.Request, what string, err error, userMsg string) {
	e.log.Warn(what, zap.String("path", r.URL.Path), zap.Error(err))
	Message(w, http.StatusBadRequest, userMsg)
}

// Forbidden logs a denied request and responds 403 with userMsg.
func (e *ErrorLogger) Forbidden(w http.ResponseWriter, r *http.Request, what, userMsg string) {
	e.log.Warn(what, zap.String("path", r.URL.Path))
	Message(w, http.StatusForbidden, userMsg)
}

// NotFound responds 404 with userMsg.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg string) {
	Message(w, http.StatusNotFound, userMsg)
}

// Internal logs a server error and responds 500 with a generic message.
// The underlying error is never surfaced to the client.
func (e *ErrorLogger) Internal(w http.ResponseWriter, r *http.Request, what string, err error) {
	e.log.Error(what, zap.String("path", r.URL.Path), zap.Error(err))
	Message(w, http.StatusInternalServerError, "Server error")
}
