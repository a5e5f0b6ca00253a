package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the lgrep search system
type ErrorType string

const (
	// Fatal before any I/O
	ErrorTypeValidation ErrorType = "validation"

	// Fatal, raised before or during traversal
	ErrorTypeNotFound  ErrorType = "not_found"
	ErrorTypeTraversal ErrorType = "traversal"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeCanceled  ErrorType = "canceled"

	// Non-fatal, per file
	ErrorTypeFile       ErrorType = "file"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeBinary     ErrorType = "binary"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinels for errors.Is checks across the taxonomy
var (
	ErrValidation = stderrors.New("validation error")
	ErrNotFound   = stderrors.New("path not found")
	ErrTraversal  = stderrors.New("traversal error")
	ErrTimeout    = stderrors.New("search timed out")
	ErrCanceled   = stderrors.New("search canceled")
	ErrBinary     = stderrors.New("binary or undecodable file")
	ErrInternal   = stderrors.New("internal invariant violated")
)

// ValidationError represents an invalid search option
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// NewValidationError creates a new validation error
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PatternError represents a pattern the matching engine refused to compile.
// It is a validation error: it is raised before any traversal begins.
type PatternError struct {
	Pattern    string
	Underlying error
}

// NewPatternError creates a new pattern error
func NewPatternError(pattern string, err error) *PatternError {
	return &PatternError{Pattern: pattern, Underlying: err}
}

// Error implements the error interface
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *PatternError) Unwrap() error {
	return e.Underlying
}

// Is matches ErrValidation
func (e *PatternError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError represents a missing search root
type NotFoundError struct {
	Path string
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(path string) *NotFoundError {
	return &NotFoundError{Path: path}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TraversalError represents a failure of the file enumerator on a directory entry.
// It aborts the whole call.
type TraversalError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewTraversalError creates a new traversal error
func NewTraversalError(path string, err error) *TraversalError {
	return &TraversalError{
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *TraversalError) Error() string {
	return fmt.Sprintf("walk error at %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *TraversalError) Unwrap() error {
	return e.Underlying
}

// Is matches ErrTraversal
func (e *TraversalError) Is(target error) bool {
	return target == ErrTraversal
}

// FileError represents a single unreadable or undecodable file.
// Callers skip the file and keep going.
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFile
	switch {
	case isPermissionError(err):
		errorType = ErrorTypePermission
	case stderrors.Is(err, ErrBinary):
		errorType = ErrorTypeBinary
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	return stderrors.Is(err, fs.ErrPermission)
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// TimeoutError is raised at a file boundary once the call deadline has passed
type TimeoutError struct {
	Limit        time.Duration
	Elapsed      time.Duration
	FilesScanned int
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(limit, elapsed time.Duration, filesScanned int) *TimeoutError {
	return &TimeoutError{Limit: limit, Elapsed: elapsed, FilesScanned: filesScanned}
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search timeout after %s (limit %s, %d files scanned)",
		e.Elapsed.Round(time.Millisecond), e.Limit, e.FilesScanned)
}

// Is matches ErrTimeout
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// CanceledError is raised at a file boundary when the caller's context is done
type CanceledError struct {
	Underlying error
}

// NewCanceledError creates a new cancellation error
func NewCanceledError(err error) *CanceledError {
	return &CanceledError{Underlying: err}
}

// Error implements the error interface
func (e *CanceledError) Error() string {
	return fmt.Sprintf("search canceled: %v", e.Underlying)
}

// Unwrap returns the context error
func (e *CanceledError) Unwrap() error {
	return e.Underlying
}

// Is matches ErrCanceled
func (e *CanceledError) Is(target error) bool {
	return target == ErrCanceled
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// InternalError reports a broken internal invariant
func InternalError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// Kind classifies any error from a search call for transports that only carry strings
func Kind(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrValidation):
		return ErrorTypeValidation
	case stderrors.Is(err, ErrNotFound):
		return ErrorTypeNotFound
	case stderrors.Is(err, ErrTraversal):
		return ErrorTypeTraversal
	case stderrors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case stderrors.Is(err, ErrCanceled):
		return ErrorTypeCanceled
	}

	var cfgErr *ConfigError
	if stderrors.As(err, &cfgErr) {
		return ErrorTypeConfig
	}
	var fileErr *FileError
	if stderrors.As(err, &fileErr) {
		return fileErr.Type
	}
	return ErrorTypeInternal
}
