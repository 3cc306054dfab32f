// Package tokenizer provides the default token-counting capability: tiktoken
// encodings with a character-based approximation fallback, plus a table of
// per-model context limits.
package tokenizer

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Limits describes a model's context window and the completion reservation
// carved out of it.
type Limits struct {
	ContextWindow int
	MaxCompletion int
}

// defaultLimits is used for models the table does not know. Conservative on
// purpose: over-counting a window causes provider errors, under-counting
// only triggers compression a little early.
var defaultLimits = Limits{ContextWindow: 8192, MaxCompletion: 2048}

// modelLimits maps model-name prefixes to their limits. Longest prefix wins.
var modelLimits = map[string]Limits{
	"claude-3-5-haiku":  {ContextWindow: 200000, MaxCompletion: 8192},
	"claude-3-7-sonnet": {ContextWindow: 200000, MaxCompletion: 64000},
	"claude-sonnet-4":   {ContextWindow: 200000, MaxCompletion: 64000},
	"claude-opus-4":     {ContextWindow: 200000, MaxCompletion: 32000},
	"claude":            {ContextWindow: 200000, MaxCompletion: 8192},
	"gpt-4o":            {ContextWindow: 128000, MaxCompletion: 16384},
	"gpt-4-turbo":       {ContextWindow: 128000, MaxCompletion: 4096},
	"gpt-4":             {ContextWindow: 8192, MaxCompletion: 4096},
	"gpt-3.5-turbo":     {ContextWindow: 16385, MaxCompletion: 4096},
	"o1":                {ContextWindow: 200000, MaxCompletion: 100000},
	"llama-3":           {ContextWindow: 8192, MaxCompletion: 2048},
	"llama3":            {ContextWindow: 8192, MaxCompletion: 2048},
	"mistral":           {ContextWindow: 32768, MaxCompletion: 8192},
}

// ModelLimits returns the context window and completion reservation for a
// model, matching by longest known prefix. Unknown models get conservative
// defaults rather than an error.
func ModelLimits(model string) (contextWindow, maxCompletion int) {
	best := ""
	limits := defaultLimits
	for prefix, l := range modelLimits {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
			limits = l
		}
	}
	return limits.ContextWindow, limits.MaxCompletion
}

// ApproximateTokens estimates token count from character count, at roughly
// 4 characters per token with a minimum of 1 for non-empty text.
func ApproximateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := (len(text) + 3) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Tiktoken counts tokens using tiktoken encodings. Encodings are loaded
// lazily and cached per model; if one cannot be loaded the counter falls
// back to the character approximation. Deterministic for a given
// (model, text) pair and safe for concurrent use.
type Tiktoken struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
}

// New creates a Tiktoken counter.
func New() *Tiktoken {
	return &Tiktoken{encodings: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns the number of tokens in text for the given model.
func (t *Tiktoken) Count(model, text string) int {
	if text == "" {
		return 0
	}
	enc := t.encoding(model)
	if enc == nil {
		return ApproximateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// ModelLimits implements the limits half of the capability using the
// package table.
func (t *Tiktoken) ModelLimits(model string) (contextWindow, maxCompletion int) {
	return ModelLimits(model)
}

// encoding returns the cached encoding for model, loading it on first use.
// A failed load is cached as nil so the fallback stays cheap.
func (t *Tiktoken) encoding(model string) *tiktoken.Tiktoken {
	name := encodingName(model)

	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.encodings[name]; ok {
		return enc
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		enc = nil
	}
	t.encodings[name] = enc
	return enc
}

// encodingName maps a model to its tiktoken encoding. cl100k_base is the
// GPT-4 era encoding and a close approximation for Claude models too.
func encodingName(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}
