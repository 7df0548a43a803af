package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a crumbs error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// CrumbsError represents a structured error with code, status, and details.
type CrumbsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *CrumbsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CrumbsError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CrumbsError {
	return &CrumbsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing profile or cookie database.
func NewNotFound(identifier string) *CrumbsError {
	return &CrumbsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewStoreUnavailable creates a 503 error when the host cookie store cannot be reached.
func NewStoreUnavailable(store string, err error) *CrumbsError {
	msg := fmt.Sprintf("cookie store %q is unavailable", store)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &CrumbsError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"store": store},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CrumbsError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CrumbsError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a CrumbsError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *CrumbsError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}

// As unwraps err into a CrumbsError, converting anything else to an internal error.
func As(err error) *CrumbsError {
	var cErr *CrumbsError
	if stderrors.As(err, &cErr) {
		return cErr
	}
	return NewInternal(err)
}
