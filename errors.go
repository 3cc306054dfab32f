package ctxpress

import (
	"errors"
	"fmt"
)

// Sentinel errors. Only policy construction errors ever reach a caller of the
// engine; everything else is recovered internally with a trimming fallback.
var (
	// ErrInvalidPolicy indicates a Policy field outside its valid range.
	ErrInvalidPolicy = errors.New("invalid compression policy")

	// ErrSummarizationRequired indicates a strategy that needs summarization
	// was configured with EnableSummarization set to false.
	ErrSummarizationRequired = errors.New("strategy requires summarization to be enabled")

	// ErrTokenizerRequired indicates no tokenizer capability was supplied.
	ErrTokenizerRequired = errors.New("tokenizer is required")

	// ErrSummarizationFailed indicates the summarization capability errored
	// or returned an unusable response. Never surfaced by Compress; it only
	// appears in logs and triggers the smart-trim fallback.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrStorageError indicates a provenance store operation failed.
	ErrStorageError = errors.New("storage operation failed")
)

// CompressionError provides structured context for a failed internal
// operation.
type CompressionError struct {
	// Op is the operation that failed (e.g. "Summarize", "RecordCompression").
	Op string

	// Err is the underlying error.
	Err error

	// Context holds additional key-value pairs for debugging.
	Context map[string]any
}

// Error returns a formatted error message.
func (e *CompressionError) Error() string {
	msg := fmt.Sprintf("compression %s failed", e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *CompressionError) Unwrap() error {
	return e.Err
}

// NewCompressionError creates a CompressionError for the given operation.
func NewCompressionError(op string, err error) *CompressionError {
	return &CompressionError{
		Op:      op,
		Err:     err,
		Context: make(map[string]any),
	}
}

// WithContext adds a key-value pair to the error context and returns the
// error for chaining.
func (e *CompressionError) WithContext(key string, value any) *CompressionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
