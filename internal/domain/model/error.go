package model

import (
	"errors"
	"fmt"
)

// Error codes shared by the execution engine, scheduler and repositories
const (
	CodeConflict         = "LOOP_CONFLICT"
	CodeNotFound         = "LOOP_NOT_FOUND"
	CodeCorruptState     = "LOOP_CORRUPT_STATE"
	CodePersistence      = "LOOP_PERSISTENCE"
	CodePermissionDenied = "LOOP_PERMISSION_DENIED"
	CodeInvalidInput     = "LOOP_INVALID_INPUT"
	CodeNotInitialized   = "LOOP_NOT_INITIALIZED"
)

// DomainError represents a typed failure with a stable code
type DomainError struct {
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause
func (e DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError carrying the same code, so errors.Is works
// against the exported sentinels below.
func (e DomainError) Is(target error) bool {
	var other DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithDetails returns a copy of the error with details attached
func (e DomainError) WithDetails(details map[string]interface{}) DomainError {
	e.Details = details
	return e
}

// Sentinels for errors.Is comparisons
var (
	ErrConflict         = DomainError{Code: CodeConflict, Message: "Command conflicts with current state"}
	ErrNotFound         = DomainError{Code: CodeNotFound, Message: "Referenced record does not exist"}
	ErrCorruptState     = DomainError{Code: CodeCorruptState, Message: "Persisted snapshot failed validation"}
	ErrPersistence      = DomainError{Code: CodePersistence, Message: "Storage operation failed"}
	ErrPermissionDenied = DomainError{Code: CodePermissionDenied, Message: "Permission unavailable"}
	ErrInvalidInput     = DomainError{Code: CodeInvalidInput, Message: "Invalid input"}
	ErrNotInitialized   = DomainError{Code: CodeNotInitialized, Message: "Engine has not been initialized"}
)

// NewConflictError creates a conflict error with a specific message
func NewConflictError(format string, args ...interface{}) DomainError {
	return DomainError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not found error for the given kind and id
func NewNotFoundError(kind, id string) DomainError {
	return DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]interface{}{"kind": kind, "id": id},
	}
}

// NewCorruptStateError creates a corrupt state error
func NewCorruptStateError(reason string, cause error) DomainError {
	return DomainError{Code: CodeCorruptState, Message: reason, cause: cause}
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(op string, cause error) DomainError {
	return DomainError{
		Code:    CodePersistence,
		Message: fmt.Sprintf("%s failed", op),
		Details: map[string]interface{}{"operation": op},
		cause:   cause,
	}
}

// NewPermissionDeniedError wraps a denied capability
func NewPermissionDeniedError(capability string, cause error) DomainError {
	return DomainError{
		Code:    CodePermissionDenied,
		Message: fmt.Sprintf("%s permission unavailable", capability),
		cause:   cause,
	}
}

// NewInvalidInputError creates a validation error
func NewInvalidInputError(format string, args ...interface{}) DomainError {
	return DomainError{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func hasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first DomainError in err's chain, or ""
func CodeOf(err error) string {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsCorruptState checks if the error is a corrupt state error
func IsCorruptState(err error) bool { return hasCode(err, CodeCorruptState) }

// IsPersistence checks if the error is a persistence error
func IsPersistence(err error) bool { return hasCode(err, CodePersistence) }

// IsPermissionDenied checks if the error is a permission error
func IsPermissionDenied(err error) bool { return hasCode(err, CodePermissionDenied) }

// IsInvalidInput checks if the error is a validation error
func IsInvalidInput(err error) bool { return hasCode(err, CodeInvalidInput) }

// IsNotInitialized checks if the error reports a missing Initialize call
func IsNotInitialized(err error) bool { return hasCode(err, CodeNotInitialized) }
