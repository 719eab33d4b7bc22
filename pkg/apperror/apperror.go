// Package apperror defines the error taxonomy shared by every pipeline stage.
// Internal failures are normalized into a single *AppError carrying a stable
// code, the HTTP status for that code, and a message that is safe to show users.
package apperror

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// DetailRetryAfter is the details key carrying the seconds a rate-limited caller should wait.
const DetailRetryAfter = "retryAfterSeconds"

// AppError is the normalized error every component reports through.
type AppError struct {
	Code          Code
	HTTPStatus    int
	IsOperational bool
	UserMessage   string
	Message       string
	Details       map[string]any
	Timestamp     time.Time
	cause         error
}

// New creates an operational AppError with the code's default user message.
func New(code Code, message string) *AppError {
	return &AppError{
		Code:          code,
		HTTPStatus:    code.HTTPStatus(),
		IsOperational: true,
		UserMessage:   code.UserMessage(),
		Message:       message,
		Timestamp:     time.Now().UTC(),
	}
}

// Newf creates an operational AppError with a formatted internal message.
func Newf(code Code, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an operational AppError that keeps err as its cause.
func Wrap(code Code, err error, message string) *AppError {
	e := New(code, message)
	e.cause = err
	return e
}

// RateLimited creates a RATE_LIMIT_EXCEEDED error carrying the retry-after hint.
func RateLimited(action string, retryAfterSeconds int) *AppError {
	return Newf(CodeRateLimitExceeded, "rate limit exceeded for %s", action).
		WithDetail(DetailRetryAfter, retryAfterSeconds).
		WithDetail("action", action)
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failed operation may succeed if repeated.
func (e *AppError) Retryable() bool {
	return e.Code.Retryable()
}

// UserRecoverable reports whether the user can resolve the failure.
func (e *AppError) UserRecoverable() bool {
	return e.Code.UserRecoverable()
}

// WithDetail sets a diagnostic detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if len(details) == 0 {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithUserMessage overrides the default user message and returns e.
func (e *AppError) WithUserMessage(msg string) *AppError {
	e.UserMessage = msg
	return e
}

// RetryAfterSeconds returns the retry-after hint when present.
func (e *AppError) RetryAfterSeconds() (int, bool) {
	v, ok := e.Details[DetailRetryAfter]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Normalize converts any value into an *AppError. AppErrors, including
// wrapped ones, pass through unchanged. Everything else becomes a
// non-operational UNKNOWN_ERROR with a generic user message.
func Normalize(v any) *AppError {
	switch x := v.(type) {
	case *AppError:
		if x != nil {
			return x
		}
		return unknown("nil error", nil)
	case error:
		var appErr *AppError
		if errors.As(x, &appErr) && appErr != nil {
			return appErr
		}
		return unknown(x.Error(), x)
	case string:
		return unknown(x, nil)
	case nil:
		return unknown("nil error", nil)
	default:
		return unknown(fmt.Sprintf("%v", x), nil)
	}
}

// IsRetryable reports whether err normalizes to a retryable code.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Retryable()
}

// CodeOf returns the normalized code of err.
func CodeOf(err error) Code {
	return Normalize(err).Code
}

// Is reports whether err normalizes to code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Code == code
}

func unknown(message string, cause error) *AppError {
	e := Wrap(CodeUnknown, cause, message)
	e.IsOperational = false
	return e
}
