// Package provider contains Anthropic-backed implementations of the engine's
// two injected capabilities: summarization and token counting.
package provider

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ctxpress/ctxpress/tokenizer"
)

// SummarySystemPrompt instructs the model to produce a structured summary
// that can replace the original messages without losing the context needed
// to continue the conversation.
const SummarySystemPrompt = `You are a conversation summarizer for an LLM context-management system. You will receive a conversation transcript and a size goal; produce a summary that can replace the transcript while preserving everything needed to continue the conversation.

Cover, in order, whichever of these apply:

1. **Intent** - what the user is trying to accomplish, with any stated constraints.
2. **Decisions and Agreements** - choices made during the conversation and their reasoning.
3. **Errors and Fixes** - problems encountered and how they were resolved.
4. **Preferences and Settings** - anything the user asked to be remembered.
5. **Pending Work** - tasks discussed but not finished, and the immediate next step.

Guidelines:
- Stay within the requested size; prefer dropping commentary over dropping facts.
- Keep specific details: names, values, file paths, exact error messages.
- Preserve exact user quotes when they convey important intent.
- Do not add information that was not in the conversation.
- Reply with the summary only, no preamble.`

// AnthropicSummarizer implements the summarization capability with the
// Messages streaming API.
type AnthropicSummarizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicSummarizer creates a summarizer using the given model. A
// faster, cheaper model than the conversation's own is recommended.
func NewAnthropicSummarizer(client *anthropic.Client, model string, maxTokens int64) *AnthropicSummarizer {
	return &AnthropicSummarizer{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Summarize sends the prompt and accumulates the streamed response.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SummarySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return "", fmt.Errorf("failed to accumulate stream: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("empty response from summarizer")
	}

	return out.String(), nil
}

// defaultCountTimeout bounds each token counting API call.
const defaultCountTimeout = 10 * time.Second

// AnthropicTokenizer counts tokens with the Claude token counting API.
// Results are cached by content hash, so counts stay deterministic for a
// given (model, text) pair. After the first API failure it permanently
// switches to the character-based approximation.
type AnthropicTokenizer struct {
	client  *anthropic.Client
	timeout time.Duration

	mu       sync.Mutex
	cache    map[string]int
	fallback bool
}

// NewAnthropicTokenizer creates an API-backed token counter.
func NewAnthropicTokenizer(client *anthropic.Client) *AnthropicTokenizer {
	return &AnthropicTokenizer{
		client:  client,
		timeout: defaultCountTimeout,
		cache:   make(map[string]int),
	}
}

// Count returns the number of tokens in text for the given model.
func (t *AnthropicTokenizer) Count(model, text string) int {
	if text == "" {
		return 0
	}

	key := cacheKey(model, text)
	t.mu.Lock()
	if count, ok := t.cache[key]; ok {
		t.mu.Unlock()
		return count
	}
	if t.fallback {
		t.mu.Unlock()
		return tokenizer.ApproximateTokens(text)
	}
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	resp, err := t.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model: anthropic.Model(model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		t.mu.Lock()
		t.fallback = true
		t.mu.Unlock()
		return tokenizer.ApproximateTokens(text)
	}

	count := int(resp.InputTokens)
	t.mu.Lock()
	t.cache[key] = count
	t.mu.Unlock()
	return count
}

// ModelLimits returns the model's context limits from the shared table.
func (t *AnthropicTokenizer) ModelLimits(model string) (contextWindow, maxCompletion int) {
	return tokenizer.ModelLimits(model)
}

func cacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%x", model, hash[:8])
}
