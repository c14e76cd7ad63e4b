// Package errors provides the error taxonomy for VidCraft.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryTemporary errors come from transient conditions (timeouts, unavailable backends)
	CategoryTemporary Category = iota

	// CategoryPermanent errors will fail the same way again (bad plan, unknown capability)
	CategoryPermanent

	// CategoryUser errors are due to the request itself (missing code, empty prompt)
	CategoryUser

	// CategorySystem errors are system-level (disk, subprocess, database)
	CategorySystem
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTemporary:
		return "temporary"
	case CategoryPermanent:
		return "permanent"
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// ============================================================
// AppError - Main Error Type
// ============================================================

// AppError is the main error type for all VidCraft errors.
type AppError struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Message is a user-friendly error message
	Message string

	// Category determines how the error should be handled
	Category Category

	// Inner is the underlying error
	Inner error

	// Context is additional debugging information
	Context map[string]interface{}
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an AppError with the same code, or is
// contained in the wrapped error.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if errors.As(target, &other) && other.Code != "" {
		return other.Code == e.Code
	}
	return errors.Is(e.Inner, target)
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, category Category, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...), category)
}

// Wrap wraps an existing error with context.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, keep its context
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     code,
			Message:  message,
			Category: category,
			Inner:    appErr,
			Context:  appErr.Context,
		}
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}
}

// ============================================================
// Builder Pattern for Fluent Error Construction
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Message:  message,
			Category: CategoryPermanent,
			Context:  make(map[string]interface{}),
		},
	}
}

// User marks the error as a user input error.
func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithContext adds context information.
func (b *Builder) WithContext(key string, value interface{}) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Plan errors
	CodeUnknownCapability     = "UNKNOWN_CAPABILITY"
	CodeMissingDependency     = "MISSING_DEPENDENCY"
	CodeMissingParameter      = "MISSING_PARAMETER"
	CodeInvalidParameter      = "INVALID_PARAMETER"
	CodeEmptyPlan             = "EMPTY_PLAN"
	CodePlanSelectionDegraded = "PLAN_SELECTION_DEGRADED"

	// Capability errors
	CodeCapabilityFailed  = "CAPABILITY_FAILED"
	CodeCapabilityTimeout = "CAPABILITY_TIMEOUT"

	// Model errors
	CodeModelUnavailable     = "MODEL_UNAVAILABLE"
	CodeModelInvalidResponse = "MODEL_INVALID_RESPONSE"

	// Infrastructure errors
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeJournalFailed = "JOURNAL_FAILED"
)

// ============================================================
// Helpers
// ============================================================

// CodeOf returns the code of the outermost AppError in the chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCategory extracts the category from an error.
// Returns CategoryPermanent for non-AppError errors.
func GetCategory(err error) Category {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return CategoryPermanent
}

// FormatUserMessage formats a user-facing error description.
// Capability failures keep the underlying message verbatim.
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Inner != nil && appErr.Inner.Error() != appErr.Message {
			return appErr.Message + ": " + appErr.Inner.Error()
		}
		return appErr.Message
	}

	return err.Error()
}
