// Package errors provides classified errors for refdocs.
//
// A ClassifiedError carries a category and severity so the CLI layer can
// map failures to exit codes and user-facing messages without string
// matching, and so per-node failures (skip-and-warn) are distinguishable
// from run-fatal conditions.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the broad category of an error for classification.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration errors. Always fatal
	// before any write happens.
	CategoryConfig ErrorCategory = "config"

	// CategoryMetadata represents metadata graph problems: unresolved UIDs,
	// malformed artifacts. Usually non-fatal per node.
	CategoryMetadata ErrorCategory = "metadata"

	// CategorySchema represents structural violations of the metadata graph,
	// e.g. a namespace parent cycle. Fatal for the affected branch.
	CategorySchema ErrorCategory = "schema"

	// CategoryFileSystem represents directory/file creation failures.
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryStorage represents archive store failures.
	CategoryStorage ErrorCategory = "storage"

	// CategoryInternal represents bugs and unexpected states.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the whole run
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continue with degraded output
)

// ClassifiedError is a structured error with category, severity, and context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  map[string]any
}

// New creates a ClassifiedError without a cause.
func New(category ErrorCategory, severity ErrorSeverity, message string) *ClassifiedError {
	return &ClassifiedError{category: category, severity: severity, message: message}
}

// Wrap creates a ClassifiedError wrapping a cause.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ClassifiedError {
	return &ClassifiedError{category: category, severity: severity, message: message, cause: err}
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory { return e.category }

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Message returns the error message without classification markers.
func (e *ClassifiedError) Message() string { return e.message }

// Context returns the attached context map (may be nil).
func (e *ClassifiedError) Context() map[string]any { return e.context }

// WithContext returns a copy of the error with an added context value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	ctx := make(map[string]any, len(e.context)+1)
	for k, v := range e.context {
		ctx[k] = v
	}
	ctx[key] = value
	return &ClassifiedError{
		category: e.category,
		severity: e.severity,
		message:  e.message,
		cause:    e.cause,
		context:  ctx,
	}
}

// IsFatal reports whether the error should stop the whole run.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// AsClassified extracts a ClassifiedError from an error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	if ce, ok := AsClassified(err); ok {
		return ce.category == category
	}
	return false
}
