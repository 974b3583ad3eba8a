// Package domain defines core types, interfaces, and errors for the dashboard service.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ConfigurationMissingError reports that the settings required to reach an
// upstream service are absent. Services treat it as the signal to serve
// their canned demo responses instead of failing.
type ConfigurationMissingError struct {
	Missing []string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("databricks not configured: missing %v", e.Missing)
}

// UpstreamError wraps a non-2xx response or transport failure from Databricks.
// StatusCode is 0 for transport failures.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// QueryFailedError is a terminal failure reported by an upstream job.
type QueryFailedError struct {
	Message string
}

func (e *QueryFailedError) Error() string { return e.Message }

// PollTimeoutError indicates the poll attempt budget was exhausted before the
// statement reached a terminal state.
type PollTimeoutError struct {
	StatementID string
	Attempts    int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("query timeout: statement %s still running after %d attempts", e.StatementID, e.Attempts)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrQueryFailed creates a QueryFailedError, falling back to the given default
// when the upstream did not report a message.
func ErrQueryFailed(message, fallback string) *QueryFailedError {
	if message == "" {
		message = fallback
	}
	return &QueryFailedError{Message: message}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConfigurationMissing reports whether err is (or wraps) a ConfigurationMissingError.
func IsConfigurationMissing(err error) bool {
	var cm *ConfigurationMissingError
	return errors.As(err, &cm)
}
