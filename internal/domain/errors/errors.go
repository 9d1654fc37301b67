// Package errors defines the application error taxonomy shared by the use cases and the delivery layer.
package errors

import (
	"net/http"

	"credvault/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// Kind groups errors by who is expected to act on them.
type Kind string

const (
	// KindValidation errors are caused by the request and are never retried.
	KindValidation Kind = "validation"
	// KindConflict errors signal a lost race with another request on the same record.
	KindConflict Kind = "conflict"
	// KindDependency errors are infrastructure faults in a collaborator.
	KindDependency Kind = "dependency"
	// KindInternal errors are faults inside this service.
	KindInternal Kind = "internal"
)

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same error code, so copies made by
// WithDetails still satisfy errors.Is against the predefined values.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Kind returns the error category.
func (e *BaseError) Kind() Kind {
	return e.kind
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		kind:      e.kind,
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Registration and rotation validation errors
	ErrEmailAlreadyRegistered = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"EMAIL_ALREADY_REGISTERED",
		"Email is already registered",
		"",
	)

	ErrWeakPassword = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"WEAK_PASSWORD",
		"Password does not satisfy the password policy",
		"",
	)

	ErrAccountNotFound = NewBaseError(
		KindValidation,
		http.StatusNotFound,
		"ACCOUNT_NOT_FOUND",
		"Account not found",
		"",
	)

	ErrInvalidCurrentPassword = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"INVALID_CURRENT_PASSWORD",
		"Current password is incorrect",
		"",
	)

	ErrValidationFailed = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrConcurrentRotation = NewBaseError(
		KindConflict,
		http.StatusConflict,
		"CONCURRENT_ROTATION",
		"Password was changed by another request, please retry",
		"",
	)

	// Collaborator faults
	ErrOracleUnavailable = NewBaseError(
		KindDependency,
		http.StatusServiceUnavailable,
		"ORACLE_UNAVAILABLE",
		"Breached-password check is unavailable",
		"",
	)

	ErrStoreUnavailable = NewBaseError(
		KindDependency,
		http.StatusServiceUnavailable,
		"STORE_UNAVAILABLE",
		"Account store is unavailable",
		"",
	)

	ErrInvalidDigestFormat = NewBaseError(
		KindDependency,
		http.StatusInternalServerError,
		"INVALID_DIGEST_FORMAT",
		"Stored password digest has an unsupported format",
		"",
	)

	// Internal errors
	ErrPasswordHashFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Password processing failed",
		"",
	)

	ErrInternalError = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface.
// It matches ErrStoreUnavailable under errors.Is.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// Is reports ErrStoreUnavailable as a match.
func (e *DatabaseExecuteError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return ErrStoreUnavailable.HTTPCode()
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return ErrStoreUnavailable.ErrorCode()
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return ErrStoreUnavailable.Message()
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// KindOf returns the category of the first AppError in err's chain.
// Errors outside the taxonomy are reported as KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var base *BaseError
	if errors.As(err, &base) {
		return base.Kind()
	}

	var dbErr *DatabaseExecuteError
	if errors.As(err, &dbErr) {
		return KindDependency
	}

	return KindInternal
}

// IsDependencyError reports whether err is an infrastructure fault in a collaborator.
func IsDependencyError(err error) bool {
	return KindOf(err) == KindDependency
}
