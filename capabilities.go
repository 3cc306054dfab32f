package ctxpress

import "context"

// Tokenizer is the token-counting capability injected into the engine.
// Implementations must be deterministic for a given (model, text) pair and
// safe for concurrent use. The tokenizer subpackage provides a
// tiktoken-backed default; the provider subpackage provides an API-backed
// Anthropic implementation.
type Tokenizer interface {
	// Count returns the number of tokens in text for the given model.
	Count(model, text string) int

	// ModelLimits returns the model's context window and the completion
	// reservation carved out of it. Unknown models return conservative
	// defaults rather than failing.
	ModelLimits(model string) (contextWindow, maxCompletion int)
}

// SummaryProvider condenses prompt text through a text-generation backend.
// The engine treats it as a black box: it only depends on the provider
// returning shorter text that preserves salient content. Errors are always
// recovered by falling back to smart trimming.
type SummaryProvider interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Archiver records compression provenance. Implementations are best-effort:
// the Manager logs and ignores their errors. The archive subpackage provides
// a PostgreSQL implementation.
type Archiver interface {
	RecordCompression(ctx context.Context, event Event) error
}
