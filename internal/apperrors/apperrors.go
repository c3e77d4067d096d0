package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrNoActiveTrip       = errors.New("no active trip")
	ErrNoSession          = errors.New("no authenticated session")
	ErrInsufficientFunds  = errors.New("insufficient wallet funds")
	ErrNotFound           = errors.New("not found")
)

// AppError is a user-presentable failure. The UI layer renders Title/Message
// as a blocking dialog; Err carries the machine-checkable cause.
type AppError struct {
	Code    string
	Title   string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Title
}

func (e *AppError) Unwrap() error { return e.Err }

func New(code, title, message string, cause error) *AppError {
	return &AppError{Code: code, Title: title, Message: message, Err: cause}
}

// Validation is a pre-network input failure; it always blocks the action.
func Validation(message string) *AppError {
	return &AppError{Code: "validation", Title: "Check your input", Message: message}
}

func InsufficientFunds() *AppError {
	return &AppError{
		Code:    "insufficient_funds",
		Title:   "Wallet payment failed",
		Message: "Please pay cash.",
		Err:     ErrInsufficientFunds,
	}
}

func Unreachable(op string) *AppError {
	return &AppError{
		Code:    "network",
		Title:   "Network error",
		Message: fmt.Sprintf("Could not reach server for %s.", op),
		Err:     ErrBackendUnreachable,
	}
}

// ServerMessage surfaces a backend error payload verbatim when present,
// falling back to a generic message.
func ServerMessage(title, serverMsg string) *AppError {
	msg := serverMsg
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	return &AppError{Code: "server", Title: title, Message: msg}
}
