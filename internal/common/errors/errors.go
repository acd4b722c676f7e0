// Package errors provides standardized error handling for the assessment API.
package errors

import (
	"errors"
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
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeEmployeeNotFound     ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeFileNotFound         ErrorCode = "FILE_NOT_FOUND"
	ErrCodeObjectNotFound       ErrorCode = "OBJECT_NOT_FOUND"

	ErrCodeStorageUnreachable  ErrorCode = "STORAGE_UNREACHABLE"
	ErrCodeStorageAccessDenied ErrorCode = "STORAGE_ACCESS_DENIED"
	ErrCodeStorageWriteFailed  ErrorCode = "STORAGE_WRITE_FAILED"

	ErrCodeRegistryInconsistent ErrorCode = "REGISTRY_INCONSISTENT"
	ErrCodeCacheUnavailable     ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable validation error for a missing
// or malformed request field.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrganizationNotFoundError creates a non-retryable not-found error.
func NewOrganizationNotFoundError(orgID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrganizationNotFound,
		Message:   "No assessment found for organization",
		Details:   fmt.Sprintf("organizationId: %s", orgID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmployeeNotFoundError creates a non-retryable not-found error.
func NewEmployeeNotFoundError(orgID string, employeeID int) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmployeeNotFound,
		Message:   "No assessment found for employee",
		Details:   fmt.Sprintf("organizationId: %s, employeeId: %d", orgID, employeeID),
		Retryable: false,
		Metadata: map[string]interface{}{
			"organizationId": orgID,
			"employeeId":     employeeID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewFileNotFoundError creates a non-retryable not-found error for a registry entry.
func NewFileNotFoundError(entryID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileNotFound,
		Message:   "File registry entry not found",
		Details:   fmt.Sprintf("entryId: %s", entryID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewObjectNotFoundError creates a non-retryable not-found error for a storage key.
func NewObjectNotFoundError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeObjectNotFound,
		Message:   "Object not found in store",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageUnreachableError creates a retryable transport-class error.
// Callers on the write path are expected to fall back to the local cache
// rather than surface this to the user.
func NewStorageUnreachableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnreachable,
		Message:   "Object store unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageAccessDeniedError creates a non-retryable permission error.
func NewStorageAccessDeniedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageAccessDenied,
		Message:   "Object store rejected credentials",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageWriteFailedError creates a retryable storage write error.
func NewStorageWriteFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageWriteFailed,
		Message:   "Object store write failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryInconsistentError creates a consistency warning. It is logged,
// never returned to the caller as a failure.
func NewRegistryInconsistentError(entryID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInconsistent,
		Message:   "Object deleted but registry entry remains",
		Details:   fmt.Sprintf("entryId: %s, error: %s", entryID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable fallback cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Fallback cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// AsStandard extracts a StandardError from err, wrapping unknown errors
// as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// Code returns the error code of err, or INTERNAL_ERROR for unknown errors.
func Code(err error) ErrorCode {
	return AsStandard(err).Code
}

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	switch Code(err) {
	case ErrCodeOrganizationNotFound, ErrCodeEmployeeNotFound,
		ErrCodeFileNotFound, ErrCodeObjectNotFound:
		return true
	}
	return false
}

// IsTransport reports whether err is a transport-class failure that should
// activate the fallback cache instead of failing the request.
func IsTransport(err error) bool {
	return Code(err) == ErrCodeStorageUnreachable
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	return Code(err) == ErrCodeValidationFailed
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "REGISTRY") || strings.Contains(codeStr, "CACHE"):
		return "CONSISTENCY"
	default:
		return "OTHER"
	}
}
