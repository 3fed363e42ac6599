// Package errors provides the structured error type shared by the store,
// the sync coordinator, the auth session and the API.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRemoteCallFailed  ErrorCode = "REMOTE_CALL_FAILED"
	ErrCodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"

	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH_INVALID_CREDENTIALS"
	ErrCodeAuthSignUpFailed       ErrorCode = "AUTH_SIGNUP_FAILED"
	ErrCodeAuthUnavailable        ErrorCode = "AUTH_UNAVAILABLE"
	ErrCodeAuthRequired           ErrorCode = "AUTH_REQUIRED"

	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeSearchFailed      ErrorCode = "SEARCH_FAILED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// FieldError is a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRemoteCallFailedError wraps a failed backend call.
func NewRemoteCallFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteCallFailed,
		Message:   "Remote call failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRemoteUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteUnavailable,
		Message:   "Remote backend unavailable",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationError carries per-field failures in Metadata["fields"].
func NewValidationError(fields []FieldError) *StandardError {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Details:   strings.Join(msgs, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidCredentialsError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthInvalidCredentials,
		Message:   "Invalid email or password",
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSignUpFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthSignUpFailed,
		Message:   "Unable to create account",
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewAuthUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthUnavailable,
		Message:   "Authentication service unavailable",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewAuthRequiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthRequired,
		Message:   "Sign in required",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Failed to persist local state",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Search failed",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf returns the code of the first StandardError in err's chain,
// or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

func IsRetryable(err error) bool {
	var se *StandardError
	return stderrors.As(err, &se) && se.Retryable
}

// FieldErrors extracts validation failures, if any.
func FieldErrors(err error) []FieldError {
	var se *StandardError
	if !stderrors.As(err, &se) || se.Code != ErrCodeValidationFailed {
		return nil
	}
	fields, _ := se.Metadata["fields"].([]FieldError)
	return fields
}

// userMessages are the only strings ever shown to end users. Details never
// leave the process.
var userMessages = map[ErrorCode]string{
	ErrCodeRemoteCallFailed:       "We couldn't save your change. Please try again.",
	ErrCodeRemoteUnavailable:      "You're offline. Changes are saved on this device.",
	ErrCodeValidationFailed:       "Please check the highlighted fields.",
	ErrCodeNotFound:               "That item no longer exists.",
	ErrCodeAuthInvalidCredentials: "Invalid email or password.",
	ErrCodeAuthSignUpFailed:       "Unable to create account. Please try again.",
	ErrCodeAuthUnavailable:        "Sign-in is temporarily unavailable. Please try again later.",
	ErrCodeAuthRequired:           "Please sign in to continue.",
	ErrCodePersistenceFailed:      "Your change could not be stored on this device.",
	ErrCodeSearchFailed:           "Search is temporarily unavailable.",
}

// UserMessage returns a sanitized, user-facing message for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := userMessages[CodeOf(err)]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "AUTH"):
		return "AUTH"
	case strings.HasPrefix(codeStr, "REMOTE"):
		return "REMOTE"
	case strings.Contains(codeStr, "VALIDATION") || code == ErrCodeNotFound:
		return "VALIDATION"
	case code == ErrCodePersistenceFailed:
		return "STORAGE"
	case code == ErrCodeSearchFailed:
		return "SEARCH"
	default:
		return "OTHER"
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
