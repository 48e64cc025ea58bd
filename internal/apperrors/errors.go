package apperrors

import (
	"errors"
	"fmt"
)

// RetryableError indicates an error that might be resolved by retrying.
type RetryableError struct {
	Err error
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryable wraps the given error as a RetryableError, adding a message.
func NewRetryable(err error, message string, args ...interface{}) error {
	format := message + ": %w"
	allArgs := append(args, err)
	return &RetryableError{Err: fmt.Errorf(format, allArgs...)}
}

// FatalError indicates an error that is unlikely to be resolved by retrying.
type FatalError struct {
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal wraps the given error as a FatalError, adding a message.
func NewFatal(err error, message string, args ...interface{}) error {
	format := message + ": %w"
	allArgs := append(args, err)
	return &FatalError{Err: fmt.Errorf(format, allArgs...)}
}

// --- Standard Error Definitions ---

// These sentinel errors define the application-level error conditions. They can be
// checked using errors.Is and wrapped by RetryableError or FatalError depending on
// the context where they are handled.
var (
	// ErrNotFound indicates a referenced conversation/message/contact is absent.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates a missing or malformed field in an inbound API call.
	ErrValidation = errors.New("validation failed")
	// ErrUnparseable indicates a phone number or payload shape could not be normalized.
	ErrUnparseable = errors.New("unparseable input")
	// ErrConfigMissing indicates no routing target is configured for a resolved area.
	ErrConfigMissing = errors.New("configuration missing")
	// ErrUpstreamRejected indicates the messaging provider or an automation webhook
	// returned a non-success response.
	ErrUpstreamRejected = errors.New("upstream rejected request")
	// ErrDatabase indicates a general database interaction error.
	ErrDatabase = errors.New("database error")
	// ErrDuplicate indicates a conflict due to duplicate data (e.g., unique constraint).
	ErrDuplicate = errors.New("duplicate resource")
	// ErrBadRequest indicates a malformed or invalid request from the client/caller.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized indicates an authorization failure.
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timeout")
)

// UpstreamError carries the upstream HTTP status and response body for diagnostics.
// It wraps ErrUpstreamRejected so callers can match with errors.Is.
type UpstreamError struct {
	StatusCode int
	Body       string
	Target     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: %s returned status %d: %s", ErrUpstreamRejected, e.Target, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRejected
}

// NewUpstream creates an UpstreamError for a failed provider or webhook call.
func NewUpstream(target string, statusCode int, body string) error {
	return &UpstreamError{StatusCode: statusCode, Body: body, Target: target}
}

// --- Helper functions for checking ---

// IsRetryable checks if the error is a RetryableError or wraps one.
func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// IsFatal checks if the error is a FatalError or wraps one.
func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}

// IsNotFoundError checks if the error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error is or wraps ErrValidation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnparseableError checks if the error is or wraps ErrUnparseable.
func IsUnparseableError(err error) bool {
	return errors.Is(err, ErrUnparseable)
}

// IsConfigMissingError checks if the error is or wraps ErrConfigMissing.
func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

// IsUpstreamRejectedError checks if the error is or wraps ErrUpstreamRejected.
func IsUpstreamRejectedError(err error) bool {
	return errors.Is(err, ErrUpstreamRejected)
}

// IsDatabaseError checks if the error is or wraps ErrDatabase.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsDuplicateError checks if the error is or wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsUnauthorizedError checks if the error is or wraps ErrUnauthorized.
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsBadRequestError checks if the error is or wraps ErrBadRequest.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsTimeoutError checks if the error is or wraps ErrTimeout.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}
