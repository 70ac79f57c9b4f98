// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error answer.
type Body struct {
	Error string `json:"error"`
	Back  string `json:"back,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorLogger logs a failure with request context and answers the client
// with a short user-facing message.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	f := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok {
		f = append(f, zap.String("user_id", u.ID))
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	return f
}

// LogServerError logs at error level and answers 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Error(msg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}
	WriteJSON(w, http.StatusInternalServerError, Body{Error: userMsg, Back: backURL})
}

// LogBadRequest logs at info level and answers 400.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Info(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusBadRequest, Body{Error: userMsg, Back: backURL})
}

// LogForbidden logs at warn level and answers 403.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusForbidden, Body{Error: userMsg, Back: backURL})
}

// LogNotFound logs at info level and answers 404.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Info(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusNotFound, Body{Error: userMsg, Back: backURL})
}

// LogTooManyRequests logs at warn level and answers 429.
func (e *ErrorLogger) LogTooManyRequests(w http.ResponseWriter, r *http.Request, msg, userMsg string) {
	e.Log.Warn(msg, e.fields(r, nil)...)
	WriteJSON(w, http.StatusTooManyRequests, Body{Error: userMsg})
}
