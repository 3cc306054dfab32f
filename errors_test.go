package ctxpress

import (
	"errors"
	"fmt"
	"testing"
)

func TestCompressionError(t *testing.T) {
	cause := fmt.Errorf("%w: model overloaded", ErrSummarizationFailed)
	err := NewCompressionError("Summarize", cause).
		WithContext("target_tokens", 500)

	if got := err.Error(); got != "compression Summarize failed: summarization failed: model overloaded" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrSummarizationFailed) {
		t.Error("errors.Is does not see the sentinel through the wrapper")
	}
	if err.Context["target_tokens"] != 500 {
		t.Errorf("Context[target_tokens] = %v, want 500", err.Context["target_tokens"])
	}

	var ce *CompressionError
	if !errors.As(err, &ce) || ce.Op != "Summarize" {
		t.Error("errors.As failed to recover the structured error")
	}
}

func TestCompressionError_NilCause(t *testing.T) {
	err := NewCompressionError("RecordCompression", nil)
	if got := err.Error(); got != "compression RecordCompression failed" {
		t.Errorf("Error() = %q", got)
	}
	if err.Unwrap() != nil {
		t.Error("Unwrap of a nil cause is not nil")
	}
}
