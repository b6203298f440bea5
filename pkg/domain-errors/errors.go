// Package domainerrors defines the closed set of coded errors that domain
// services may return. Each error carries a stable code used for dispatch:
// handlers map codes to HTTP statuses or interactive outcomes without
// inspecting message text.
//
// Services declare which codes they may produce in their doc comments;
// anything without a code is a defect and falls through to the recovery
// boundary untranslated.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable discriminant of a domain error.
type Code string

const (
	CodeNotFound        Code = "not_found"
	CodeValidation      Code = "validation"
	CodeUnauthenticated Code = "unauthenticated"
	CodeUnauthorized    Code = "unauthorized"
	CodeConflict        Code = "conflict"
	CodeBadRequest      Code = "bad_request"
	CodeInternal        Code = "internal_error"
)

// Error is a coded domain error. Entity/ID are set for not-found errors,
// Field for validation errors; both are empty otherwise.
type Error struct {
	Code    Code
	Message string
	Entity  string
	ID      string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs a coded error with a curated, user-visible message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and curated message to an underlying cause. The cause
// is preserved for logging but never reaches response bodies.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NotFound constructs a not-found error for the named entity.
func NotFound(entity, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Entity:  entity,
		ID:      id,
	}
}

// Validation constructs a validation error. Field may be empty when the
// failure is not attributable to a single input field.
func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Field: field}
}

// Unauthenticated constructs an unauthenticated error. Handlers translate
// this into a login redirect (interactive) or 401 (machine) and never show
// it inline.
func Unauthenticated(message string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message}
}

// Unauthorized constructs an unauthorized (forbidden) error.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err. ok is false when err is not a coded
// error, meaning the failure is outside the declared set.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// Message extracts the curated message from err, or falls back to the given
// default when err is not a coded error or its message is empty.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}

// ToHTTPStatus maps a code to the HTTP status used in machine-facing
// responses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
