package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("output_mode", "lines", "must be one of content, files_with_matches, count")

	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error to match ErrValidation")
	}

	expectedMsg := `invalid output_mode "lines": must be one of content, files_with_matches, count`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	noValue := NewValidationError("pattern", "", "must not be empty")
	if noValue.Error() != "invalid pattern: must not be empty" {
		t.Errorf("Unexpected message without value: %q", noValue.Error())
	}
}

func TestPatternErrorIsValidation(t *testing.T) {
	underlying := errors.New("missing closing )")
	err := NewPatternError("(foo", underlying)

	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected pattern error to be a validation error")
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	if Kind(err) != ErrorTypeValidation {
		t.Errorf("Expected kind validation, got %s", Kind(err))
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("/no/such/dir")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not-found error to match ErrNotFound")
	}

	if err.Error() != "path not found: /no/such/dir" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestTraversalError(t *testing.T) {
	err := NewTraversalError("/root/locked", fs.ErrPermission)

	if !errors.Is(err, ErrTraversal) {
		t.Errorf("Expected traversal error to match ErrTraversal")
	}

	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Expected traversal error to expose the underlying cause")
	}

	if err.Timestamp.IsZero() {
		t.Errorf("Expected Timestamp to be set")
	}
}

func TestFileErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"permission", fs.ErrPermission, ErrorTypePermission},
		{"wrapped permission", fmt.Errorf("open: %w", fs.ErrPermission), ErrorTypePermission},
		{"binary", ErrBinary, ErrorTypeBinary},
		{"other", errors.New("short read"), ErrorTypeFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFileError("read", "/tmp/x", tt.err)
			if err.Type != tt.want {
				t.Errorf("Expected type %s, got %s", tt.want, err.Type)
			}
			if Kind(err) != tt.want {
				t.Errorf("Expected kind %s, got %s", tt.want, Kind(err))
			}
		})
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError(500*time.Millisecond, 612*time.Millisecond, 42)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected timeout error to match ErrTimeout")
	}

	expectedMsg := "search timeout after 612ms (limit 500ms, 42 files scanned)"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	var te *TimeoutError
	if !errors.As(fmt.Errorf("call failed: %w", err), &te) || te.FilesScanned != 42 {
		t.Errorf("Expected errors.As to recover the timeout error")
	}
}

func TestCanceledError(t *testing.T) {
	err := NewCanceledError(errors.New("context canceled"))

	if !errors.Is(err, ErrCanceled) {
		t.Errorf("Expected canceled error to match ErrCanceled")
	}

	if errors.Is(err, ErrTimeout) {
		t.Errorf("Cancellation must be distinguishable from a timeout")
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("must be positive")
	err := NewConfigError("head_limit", "-3", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "config error for field head_limit (value -3): must be positive"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if Kind(err) != ErrorTypeConfig {
		t.Errorf("Expected kind config, got %s", Kind(err))
	}
}

func TestKind(t *testing.T) {
	if Kind(nil) != "" {
		t.Errorf("Expected empty kind for nil")
	}

	if Kind(InternalError("range start %d", -1)) != ErrorTypeInternal {
		t.Errorf("Expected internal kind")
	}

	wrapped := fmt.Errorf("search: %w", NewNotFoundError("x"))
	if Kind(wrapped) != ErrorTypeNotFound {
		t.Errorf("Expected kind to see through wrapping, got %s", Kind(wrapped))
	}
}
