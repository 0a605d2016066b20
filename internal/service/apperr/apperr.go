// Package apperr defines the stable error codes returned to API clients.
//
// Every code maps to one HTTP status and one public message. The wrapped
// cause is kept for logging and never rendered to the client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, client-visible error identifier.
type Code string

const (
	CodeUnauthenticated Code = "AUTH_001"
	CodeValidation      Code = "VALIDATION_001"
	CodeAddress         Code = "ADDRESS_001"
	CodeOrderInsert     Code = "ORDER_001"
	CodeItemsInsert     Code = "ORDER_002"
	CodeOrderNotFound   Code = "ORDER_404"
	CodeServer          Code = "SERVER_001"
)

var statusByCode = map[Code]int{
	CodeUnauthenticated: http.StatusUnauthorized,
	CodeValidation:      http.StatusBadRequest,
	CodeAddress:         http.StatusBadRequest,
	CodeOrderInsert:     http.StatusInternalServerError,
	CodeItemsInsert:     http.StatusInternalServerError,
	CodeOrderNotFound:   http.StatusNotFound,
	CodeServer:          http.StatusInternalServerError,
}

var messageByCode = map[Code]string{
	CodeUnauthenticated: "Authentication required",
	CodeValidation:      "Invalid request payload",
	CodeAddress:         "Shipping address not found",
	CodeOrderInsert:     "Failed to create order",
	CodeItemsInsert:     "Failed to create order items",
	CodeOrderNotFound:   "Order not found",
	CodeServer:          "Internal server error",
}

// HTTPStatus returns the HTTP status for code, 500 for unknown codes.
func HTTPStatus(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// Message returns the public message for code.
func Message(code Code) string {
	if msg, ok := messageByCode[code]; ok {
		return msg
	}

	return messageByCode[CodeServer]
}

// Error is an application error carrying a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the public message of code.
func New(code Code) *Error {
	return &Error{
		Code:    code,
		Message: Message(code),
	}
}

// Wrap creates an error with the public message of code and an internal cause.
func Wrap(code Code, err error) *Error {
	return &Error{
		Code:    code,
		Message: Message(code),
		Err:     err,
	}
}

// WithMessage returns a copy of e with a more specific public message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg

	return &cp
}

// From extracts an *Error from err. Anything else becomes CodeServer.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return Wrap(CodeServer, err)
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}

	return false
}
