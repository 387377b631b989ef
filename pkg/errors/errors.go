package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Entity  string    `json:"entity,omitempty"`
	Field   string    `json:"field,omitempty"`
	Value   string    `json:"value,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict, ErrInvalidTransition:
		return http.StatusConflict
	case ErrDomain:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
	ErrInvalidTransition
	ErrDomain
	ErrPersistence
)

// Validation reports a missing or malformed input field.
func Validation(field, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Domain reports an input outside a calculator's mathematical domain.
func Domain(field string, value float64, message string) *AppError {
	return &AppError{
		Code:    ErrDomain,
		Message: message,
		Field:   field,
		Value:   fmt.Sprintf("%g", value),
	}
}

func Conflict(entity, message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Entity:  entity,
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot move appointment from %s to %s", from, to),
		Entity:  "appointment",
		Value:   to,
	}
}

// Persistence wraps a storage failure. entity names the step that failed and
// id, when set, identifies the record already written before the failure.
func Persistence(entity, id string, err error) *AppError {
	return &AppError{
		Code:    ErrPersistence,
		Message: fmt.Sprintf("failed to persist %s", entity),
		Entity:  entity,
		Value:   id,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Entity:  resource,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func IsValidation(err error) bool        { return hasCode(err, ErrValidation) }
func IsConflict(err error) bool          { return hasCode(err, ErrConflict) }
func IsInvalidTransition(err error) bool { return hasCode(err, ErrInvalidTransition) }
func IsDomain(err error) bool            { return hasCode(err, ErrDomain) }
func IsPersistence(err error) bool       { return hasCode(err, ErrPersistence) }
func IsNotFound(err error) bool          { return hasCode(err, ErrNotFound) }
func IsUnauthorized(err error) bool      { return hasCode(err, ErrUnauthorized) }
