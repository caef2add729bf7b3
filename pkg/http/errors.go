package http

import (
	"fmt"
	"net/http"
)

// AppError is a domain failure translated for the API: a stable code, a
// message and the HTTP status it is served with.
type AppError struct {
	Code    string `json:"code" example:"ERR_INSUFFICIENT_DATA"`
	Message string `json:"message" example:"insufficient data: 120 bars, need 200"`
	Status  int    `json:"-"`
	// RetryAfter is sent as the Retry-After header, in seconds, when positive.
	RetryAfter int   `json:"-"`
	Err        error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func newAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// NotFoundError creates a 404 for unknown symbols, indices or missing results.
func NotFoundError(message string) *AppError {
	return newAppError("ERR_NOT_FOUND", message, http.StatusNotFound)
}

// UnprocessableError creates a 422 for inputs the engine cannot score.
func UnprocessableError(code, message string) *AppError {
	return newAppError(code, message, http.StatusUnprocessableEntity)
}

// TooManyRequestsError creates a 429 asking the caller to wait retryAfter seconds.
func TooManyRequestsError(message string, retryAfter int) *AppError {
	e := newAppError("ERR_RATE_LIMITED", message, http.StatusTooManyRequests)
	e.RetryAfter = retryAfter
	return e
}

// InternalError creates a 500.
func InternalError(message string) *AppError {
	return newAppError("ERR_INTERNAL", message, http.StatusInternalServerError)
}
