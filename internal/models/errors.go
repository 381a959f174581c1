package models

import "fmt"

// Stable error codes surfaced to API callers.
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidArgument    = "invalid-argument"
	CodeFailedPrecondition = "failed-precondition"
	CodeNotFound           = "not-found"
	CodePermissionDenied   = "permission-denied"
	CodeAlreadyExists      = "already-exists"
	CodeInternal           = "internal"
)

// AppError carries a stable code, a human-readable message and optional
// actionable details (e.g. the next check-in time or the credit shortfall).
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func ErrUnauthenticated(msg string) *AppError    { return NewAppError(CodeUnauthenticated, msg) }
func ErrInvalidArgument(msg string) *AppError    { return NewAppError(CodeInvalidArgument, msg) }
func ErrFailedPrecondition(msg string) *AppError { return NewAppError(CodeFailedPrecondition, msg) }
func ErrNotFound(msg string) *AppError           { return NewAppError(CodeNotFound, msg) }
func ErrPermissionDenied(msg string) *AppError   { return NewAppError(CodePermissionDenied, msg) }
func ErrAlreadyExists(msg string) *AppError      { return NewAppError(CodeAlreadyExists, msg) }
func ErrInternal(msg string) *AppError           { return NewAppError(CodeInternal, msg) }
