package ctxpress

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Keywords that mark a message as a key event. Key events are exempted from
// summarization wherever possible and survive compression verbatim.
var eventKeywords = []string{
	"error", "exception", "failed", "important", "critical", "urgent",
	"decided", "agreed", "confirmed", "preference", "setting", "remember",
}

const (
	// maxRecursionDepth bounds recursive summarization. An unbounded
	// recursive summarizer is a design bug: a provider that never shrinks
	// its input would otherwise loop forever.
	maxRecursionDepth = 10

	// chunkConcurrency caps concurrent chunk summarization calls so a wide
	// fan-out cannot overwhelm the provider's rate limits.
	chunkConcurrency = 4

	// minSummaryBudget is the smallest budget worth summarizing into.
	minSummaryBudget = 100

	// hierarchyFullThreshold is the size below which the "full" tier of a
	// hierarchical summary returns the untouched text.
	hierarchyFullThreshold = 5000
)

// SummaryHierarchy holds summaries of one conversation at three levels of
// detail, produced in a single pass.
type SummaryHierarchy struct {
	// Brief is roughly 10% of the original size.
	Brief string

	// Detailed is roughly 30% of the original size.
	Detailed string

	// Full is at most 70% of the original size, or the untouched text when
	// the conversation is already small.
	Full string
}

// Summarizer compresses message groups through the injected summarization
// capability. Every method degrades to smart trimming when the capability is
// unavailable or errors; none of them can fail.
type Summarizer struct {
	provider   SummaryProvider
	accountant *TokenAccountant
	trimmer    *Trimmer
	logger     Logger
}

// NewSummarizer creates a Summarizer. The provider may be nil, in which case
// every method immediately falls back to smart trimming.
func NewSummarizer(provider SummaryProvider, accountant *TokenAccountant, logger Logger) *Summarizer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Summarizer{
		provider:   provider,
		accountant: accountant,
		trimmer:    NewTrimmer(accountant),
		logger:     logger,
	}
}

// SummarizeRecursive condenses msgs into text fitting targetTokens. Input
// already under the target is returned as-is. Oversized summaries trigger
// chunked re-summarization of the original text, recursing on the
// concatenated chunk summaries up to a fixed depth ceiling.
func (s *Summarizer) SummarizeRecursive(ctx context.Context, msgs []Message, targetTokens int) string {
	text := formatMessagesAsText(msgs)
	out, err := s.condense(ctx, text, targetTokens, 0)
	if err != nil {
		s.logger.Warn("recursive summarization failed, falling back to smart trimming",
			"error", err, "target_tokens", targetTokens)
		return formatMessagesAsText(s.trimmer.Trim(msgs, targetTokens, TrimSmart, true))
	}
	return out
}

// SummarizeHierarchical produces brief, detailed, and full summaries of msgs
// in one pass: each tier is derived from the one above it rather than from
// three independent runs over the original.
func (s *Summarizer) SummarizeHierarchical(ctx context.Context, msgs []Message) SummaryHierarchy {
	text := formatMessagesAsText(msgs)
	total := s.accountant.Count(text)

	full := text
	if total >= hierarchyFullThreshold {
		full = s.tier(ctx, msgs, text, total*70/100)
	}
	detailed := s.tier(ctx, msgs, full, total*30/100)
	brief := s.tier(ctx, msgs, detailed, total*10/100)

	return SummaryHierarchy{Brief: brief, Detailed: detailed, Full: full}
}

// tier condenses text to one hierarchy budget, degrading to a trimmed
// rendering of the original messages on failure.
func (s *Summarizer) tier(ctx context.Context, msgs []Message, text string, targetTokens int) string {
	if targetTokens < minSummaryBudget {
		targetTokens = minSummaryBudget
	}
	out, err := s.condense(ctx, text, targetTokens, 0)
	if err != nil {
		s.logger.Warn("hierarchical summarization failed, falling back to smart trimming",
			"error", err, "target_tokens", targetTokens)
		return formatMessagesAsText(s.trimmer.Trim(msgs, targetTokens, TrimSmart, true))
	}
	return out
}

// CompressPreserveEvents partitions msgs into key events and routine
// messages, summarizes only the routine ones, and returns the summary
// message followed by the key events in their original relative order. When
// the key events alone already exceed the budget they cannot be shrunk
// without losing their point, so the whole conversation is summarized into a
// single system message instead.
func (s *Summarizer) CompressPreserveEvents(ctx context.Context, msgs []Message, targetTokens int) []Message {
	if len(msgs) == 0 {
		return msgs
	}

	events, routine := partitionKeyEvents(msgs)

	eventTokens := 0
	for _, msg := range events {
		eventTokens += s.accountant.CountMessage(msg)
	}

	if eventTokens > targetTokens {
		summary, err := s.condense(ctx, formatMessagesAsText(msgs), targetTokens, 0)
		if err != nil {
			return s.fallbackTrim(msgs, targetTokens, err)
		}
		return []Message{NewSummaryMessage(summary)}
	}

	if len(routine) == 0 {
		return append([]Message(nil), events...)
	}

	// Key events fit, but the leftover budget is too small for a useful
	// routine summary. Raising it would overshoot the target, so trim the
	// whole conversation instead.
	budget := targetTokens - eventTokens
	if budget < minSummaryBudget {
		s.logger.Debug("routine summary budget below floor, falling back to smart trimming",
			"budget", budget, "target_tokens", targetTokens)
		return s.trimmer.Trim(msgs, targetTokens, TrimSmart, true)
	}

	summary, err := s.condense(ctx, formatMessagesAsText(routine), budget, 0)
	if err != nil {
		return s.fallbackTrim(msgs, targetTokens, err)
	}

	out := make([]Message, 0, len(events)+1)
	out = append(out, NewSummaryMessage(summary))
	out = append(out, events...)
	return out
}

// condense reduces text under targetTokens, recursing through chunked
// summarization when a single pass is not enough. At the depth ceiling it
// returns the shortest form reached rather than looping further.
func (s *Summarizer) condense(ctx context.Context, text string, targetTokens, depth int) (string, error) {
	if s.accountant.Count(text) <= targetTokens {
		return text, nil
	}
	if s.provider == nil {
		return "", fmt.Errorf("%w: no summary provider configured", ErrSummarizationFailed)
	}
	if depth >= maxRecursionDepth {
		s.logger.Warn("summarization recursion ceiling reached",
			"depth", depth, "target_tokens", targetTokens)
		return text, nil
	}

	summary, err := s.summarizeOnce(ctx, text, targetTokens)
	if err != nil {
		return "", err
	}
	if s.accountant.Count(summary) <= targetTokens {
		return summary, nil
	}

	// The single-pass summary is still over budget. Split the original text
	// into roughly token-equal chunks on sentence boundaries, summarize each
	// independently, and recurse on the concatenation.
	chunks := s.chunkForTarget(text, targetTokens)
	if len(chunks) <= 1 {
		return summary, nil
	}

	perChunk := targetTokens / len(chunks)
	if perChunk < 1 {
		perChunk = 1
	}

	parts, err := s.summarizeChunks(ctx, chunks, perChunk)
	if err != nil {
		return "", err
	}

	return s.condense(ctx, strings.Join(parts, "\n\n"), targetTokens, depth+1)
}

// summarizeOnce performs a single summarization call.
func (s *Summarizer) summarizeOnce(ctx context.Context, text string, targetTokens int) (string, error) {
	summary, err := s.provider.Summarize(ctx, buildSummaryPrompt(text, targetTokens))
	if err != nil {
		return "", NewCompressionError("Summarize", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)).
			WithContext("target_tokens", targetTokens)
	}
	if strings.TrimSpace(summary) == "" {
		return "", NewCompressionError("Summarize", fmt.Errorf("%w: empty response from provider", ErrSummarizationFailed)).
			WithContext("target_tokens", targetTokens)
	}
	return summary, nil
}

// summarizeChunks fans out chunk summarization with bounded concurrency.
// Chunks have no ordering dependency on each other; only the caller's
// concatenate-and-recurse step is sequential.
func (s *Summarizer) summarizeChunks(ctx context.Context, chunks []string, perChunkTarget int) ([]string, error) {
	parts := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := s.summarizeOnce(gctx, chunk, perChunkTarget)
			if err != nil {
				return err
			}
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return parts, nil
}

// chunkForTarget splits text into roughly token-equal chunks sized so that
// their count matches how far over budget the text is.
func (s *Summarizer) chunkForTarget(text string, targetTokens int) []string {
	total := s.accountant.Count(text)
	if targetTokens < 1 {
		targetTokens = 1
	}
	n := (total + targetTokens - 1) / targetTokens
	if n < 2 {
		n = 2
	}
	return chunkByTokens(text, total/n+1, s.accountant.Count)
}

// fallbackTrim is the deterministic degradation path shared by all
// summarizer methods.
func (s *Summarizer) fallbackTrim(msgs []Message, targetTokens int, cause error) []Message {
	s.logger.Warn("summarization failed, falling back to smart trimming",
		"error", cause, "target_tokens", targetTokens)
	return s.trimmer.Trim(msgs, targetTokens, TrimSmart, true)
}

// partitionKeyEvents splits msgs into key events and routine messages,
// preserving original relative order in both. System messages count as key
// events so instructions are never silently summarized away.
func partitionKeyEvents(msgs []Message) (events, routine []Message) {
	for _, msg := range msgs {
		if msg.Role == RoleSystem || isKeyEvent(msg) {
			events = append(events, msg)
		} else {
			routine = append(routine, msg)
		}
	}
	return events, routine
}

// isKeyEvent reports whether a message matches the key-event keyword set.
func isKeyEvent(msg Message) bool {
	lower := strings.ToLower(msg.Content)
	for _, kw := range eventKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
