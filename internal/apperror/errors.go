// Package apperror carries an HTTP status and a client-safe message with an
// error. The echo error handler in internal/app turns them into pages, JSON
// or HTMX responses.
//
// Raw database, SMTP and crypto errors never reach a client: wrap them with
// NewInternal (or NewUnavailable) so only Message is shown.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with a status code and a message safe to display.
type AppError struct {
	Code    int    `json:"-"`
	Type    string `json:"type"`    // machine readable, e.g. "not_found"
	Message string `json:"message"` // shown to the user

	// Internal is logged, never shown.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal == nil {
		return e.Type + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
}

func (e *AppError) Unwrap() error { return e.Internal }

func newError(code int, typ, message string, internal error) *AppError {
	return &AppError{Code: code, Type: typ, Message: message, Internal: internal}
}

func NewBadRequest(message string) *AppError {
	return newError(http.StatusBadRequest, "bad_request", message, nil)
}

func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, "unauthorized", message, nil)
}

func NewForbidden(message string) *AppError {
	return newError(http.StatusForbidden, "forbidden", message, nil)
}

func NewNotFound(message string) *AppError {
	return newError(http.StatusNotFound, "not_found", message, nil)
}

// NewValidation is a 422 for input that parsed but is not acceptable, such as
// a malformed sender address.
func NewValidation(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, "validation_error", message, nil)
}

// NewUnavailable is a 503 for a dependency that is unreachable or not set up
// yet, such as an SMTP relay that was never configured.
func NewUnavailable(message string, err error) *AppError {
	return newError(http.StatusServiceUnavailable, "unavailable", message, err)
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	return newError(http.StatusInternalServerError, "internal_error",
		"An unexpected error occurred. Please try again.", err)
}

// SafeMessage returns the displayable message of err, or a generic one when
// err is not an AppError.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the status of err, or 500 when err is not an AppError.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is or wraps a 404 AppError.
func IsNotFound(err error) bool {
	return SafeCode(err) == http.StatusNotFound
}
