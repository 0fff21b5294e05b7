package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-readable error code. Callers match on the
// code, not the message.
type ErrorCode string

const (
	// Generation-time configuration errors (fatal, not retried)
	ErrCodePoolAlreadyLocked   ErrorCode = "POOL_ALREADY_LOCKED"
	ErrCodeSalesAlreadyStarted ErrorCode = "SALES_ALREADY_STARTED"
	ErrCodePrizeOversubscribed ErrorCode = "PRIZE_OVERSUBSCRIBED"

	// Allocation-time errors (reported to caller, retryable later)
	ErrCodeInsufficientTickets    ErrorCode = "INSUFFICIENT_TICKETS"
	ErrCodePoolNotLocked          ErrorCode = "POOL_NOT_LOCKED"
	ErrCodeCompetitionNotSellable ErrorCode = "COMPETITION_NOT_SELLABLE"
	ErrCodeBusy                   ErrorCode = "BUSY"

	// Fulfillment-time errors (reported, not retried)
	ErrCodeAlreadyFulfilled ErrorCode = "ALREADY_FULFILLED"
	ErrCodeDeadlineExpired  ErrorCode = "DEADLINE_EXPIRED"

	// General errors
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is a typed application error carrying a stable code, a
// human-readable message and an optional cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match two AppErrors by code
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus maps the error code to an HTTP response status
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodePrizeOversubscribed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodePoolAlreadyLocked, ErrCodeSalesAlreadyStarted,
		ErrCodePoolNotLocked, ErrCodeCompetitionNotSellable,
		ErrCodeInsufficientTickets, ErrCodeAlreadyFulfilled,
		ErrCodeDeadlineExpired:
		return http.StatusConflict
	case ErrCodeBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
