// Package errors provides a lightweight structured error type (StyleError)
// for category-based classification of configuration, compilation and
// filesystem failures, plus a CLI adapter mapping categories to exit codes.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a stylebuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Compiler and processing errors
	CategoryCompilation ErrorCategory = "compilation"
	CategoryFileSystem  ErrorCategory = "filesystem"
	CategoryBuild       ErrorCategory = "build"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// StyleError is a structured error with category, severity and context
type StyleError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for StyleError
type ContextFields map[string]any

// Error implements the error interface
func (e *StyleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *StyleError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *StyleError) WithContext(key string, value any) *StyleError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new StyleError
func New(category ErrorCategory, severity ErrorSeverity, message string) *StyleError {
	return &StyleError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new StyleError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *StyleError {
	return &StyleError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the first StyleError in err's chain.
func As(err error) (*StyleError, bool) {
	var se *StyleError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCategory checks if any error in the chain belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := As(err); ok {
		return se.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a StyleError
func GetCategory(err error) ErrorCategory {
	if se, ok := As(err); ok {
		return se.Category
	}
	return CategoryInternal
}
