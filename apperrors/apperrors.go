// Package apperrors defines the application error taxonomy and its
// mapping to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the kind of application error
type ErrorType string

const (
	TypeUnauthenticated   ErrorType = "unauthenticated"
	TypeForbidden         ErrorType = "forbidden"
	TypeNotFound          ErrorType = "not_found"
	TypeValidation        ErrorType = "validation_error"
	TypeInvalidCoordinate ErrorType = "invalid_coordinate"
	TypeStorage           ErrorType = "storage_error"
)

// AppError carries an error kind, a human-readable message and the
// HTTP status code the transport layer should answer with.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Is makes errors.Is match on the error kind.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if errors.As(target, &other) {
		return e.Type == other.Type
	}
	return false
}

func NewUnauthenticated(message string) *AppError {
	return &AppError{Type: TypeUnauthenticated, Message: message, Code: http.StatusUnauthorized}
}

func NewForbidden(message string) *AppError {
	return &AppError{Type: TypeForbidden, Message: message, Code: http.StatusForbidden}
}

func NewNotFound(message string) *AppError {
	return &AppError{Type: TypeNotFound, Message: message, Code: http.StatusNotFound}
}

func NewValidation(message string) *AppError {
	return &AppError{Type: TypeValidation, Message: message, Code: http.StatusBadRequest}
}

func NewInvalidCoordinate(message string) *AppError {
	return &AppError{Type: TypeInvalidCoordinate, Message: message, Code: http.StatusBadRequest}
}

func NewStorage(message string) *AppError {
	return &AppError{Type: TypeStorage, Message: message, Code: http.StatusInternalServerError}
}

// HTTPStatus returns the status code for err, defaulting to 500 for
// errors that did not originate in this package.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Message returns the user-visible message for err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong"
}

// IsType reports whether err is an AppError of the given kind.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
