package ctxpress

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Histories longer than this route to the smart strategy under StrategyAuto;
// shorter ones take the cheap trimming path to avoid unnecessary LLM calls.
const autoSmartThreshold = 20

// Result describes one compression pass. It is provenance metadata only;
// correctness never depends on it.
type Result struct {
	// ID identifies the pass and any archived provenance record.
	ID uuid.UUID

	// Strategy is the strategy that actually ran (auto is resolved).
	Strategy Strategy

	// TokensBefore is the prompt token count that triggered compression.
	TokensBefore int

	// TokensAfter is the token count of the returned message list.
	TokensAfter int

	// MessagesRemoved is the number of input messages absent from the output.
	MessagesRemoved int

	// SummaryCreated indicates a new summary message was produced.
	SummaryCreated bool

	// Duration is how long the pass took.
	Duration time.Duration
}

// Event is the provenance record handed to an Archiver after a compression
// pass, including the messages that were evicted.
type Event struct {
	ID              uuid.UUID
	Strategy        Strategy
	TokensBefore    int
	TokensAfter     int
	MessagesRemoved int
	SummaryCreated  bool
	Duration        time.Duration
	Archived        []Message
	CreatedAt       time.Time
}

// Stats describes a history's standing against the compression policy, for
// monitoring and dashboards.
type Stats struct {
	TotalMessages   int
	TotalTokens     int
	MaxTokens       int
	UsageRatio      float64
	KeyEvents       int
	SummaryMessages int
	ShouldCompress  bool
}

// Manager is the engine facade: given messages and the configured policy it
// decides whether to compress, picks a strategy, and returns the compacted
// list. A Manager holds only immutable policy and stateless capability
// handles, so one instance is safely shared across concurrent callers.
type Manager struct {
	policy     Policy
	model      string
	tokenizer  Tokenizer
	provider   SummaryProvider
	archiver   Archiver
	logger     Logger
	accountant *TokenAccountant
	monitor    *UsageMonitor
	trimmer    *Trimmer
	summarizer *Summarizer

	reservedCompletionTokens int
}

// NewManager validates the policy and wires the engine. Policy violations
// are the only errors this package ever returns to a caller; once a Manager
// exists, Compress cannot fail.
func NewManager(policy Policy, tokenizer Tokenizer, opts ...Option) (*Manager, error) {
	if tokenizer == nil {
		return nil, ErrTokenizerRequired
	}

	policy.ApplyDefaults()

	m := &Manager{
		policy:    policy,
		tokenizer: tokenizer,
		logger:    noopLogger{},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.policy.MaxTokens == 0 {
		window, maxCompletion := tokenizer.ModelLimits(m.model)
		m.policy.MaxTokens = window - maxCompletion
	}
	if err := m.policy.Validate(); err != nil {
		return nil, err
	}

	m.accountant = NewTokenAccountant(tokenizer, m.model)
	m.monitor = NewUsageMonitor(m.accountant, tokenizer, m.model, m.policy.MaxTokens, m.policy.TriggerThreshold)
	m.trimmer = NewTrimmer(m.accountant)
	if m.provider != nil && m.policy.EnableSummarization {
		m.summarizer = NewSummarizer(m.provider, m.accountant, m.logger)
	}

	return m, nil
}

// Compress returns msgs unchanged when usage is below the trigger threshold
// or the strategy is off, and the compacted list otherwise. It never fails:
// every runtime error degrades through smart trimming to identity.
func (m *Manager) Compress(ctx context.Context, msgs []Message, systemPrompt string) []Message {
	out, _ := m.CompressWithResult(ctx, msgs, systemPrompt)
	return out
}

// CompressWithResult is Compress plus provenance. The result is nil when
// compression was a no-op.
func (m *Manager) CompressWithResult(ctx context.Context, msgs []Message, systemPrompt string) ([]Message, *Result) {
	if len(msgs) == 0 || m.policy.Strategy == StrategyOff {
		return msgs, nil
	}

	usage := m.monitor.Check(msgs, systemPrompt, m.reservedCompletionTokens)
	if !usage.ShouldCompress {
		return msgs, nil
	}

	start := time.Now()
	target := m.policy.TargetTokens()
	strategy := m.effectiveStrategy(msgs)

	m.logger.Debug("starting compression",
		"strategy", string(strategy),
		"usage_ratio", usage.UsageRatio,
		"target_tokens", target,
	)

	var out []Message
	switch strategy {
	case StrategySummarize:
		out = m.compressSummarize(ctx, msgs, target)
	case StrategySmart:
		out = m.summarizer.CompressPreserveEvents(ctx, msgs, target)
	default:
		out = m.trimmer.Trim(msgs, target, TrimSmart, m.policy.PreserveSystem)
	}

	dropped := droppedMessages(msgs, out)
	created := summaryCreated(msgs, out)

	// A dispatch path may decide nothing needs to change, e.g. summarize
	// when the messages already fit the target. That is a no-op pass: no
	// result, no archive event.
	if len(dropped) == 0 && !created {
		return out, nil
	}

	result := &Result{
		ID:              uuid.New(),
		Strategy:        strategy,
		TokensBefore:    usage.PromptTokens,
		TokensAfter:     m.accountant.CountMessages(out),
		MessagesRemoved: len(dropped),
		SummaryCreated:  created,
		Duration:        time.Since(start),
	}

	m.record(ctx, result, dropped)

	m.logger.Info("context compressed",
		"strategy", string(strategy),
		"tokens_before", result.TokensBefore,
		"tokens_after", result.TokensAfter,
		"messages_removed", result.MessagesRemoved,
		"summary_created", result.SummaryCreated,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return out, result
}

// Usage returns a fresh usage snapshot without compressing anything.
func (m *Manager) Usage(msgs []Message, systemPrompt string) TokenUsage {
	return m.monitor.Check(msgs, systemPrompt, m.reservedCompletionTokens)
}

// Stats returns monitoring counters for the given history.
func (m *Manager) Stats(msgs []Message, systemPrompt string) Stats {
	usage := m.Usage(msgs, systemPrompt)

	keyEvents := 0
	summaries := 0
	for _, msg := range msgs {
		if msg.IsSummary {
			summaries++
			continue
		}
		if isKeyEvent(msg) {
			keyEvents++
		}
	}

	return Stats{
		TotalMessages:   len(msgs),
		TotalTokens:     usage.PromptTokens,
		MaxTokens:       usage.MaxTokens,
		UsageRatio:      usage.UsageRatio,
		KeyEvents:       keyEvents,
		SummaryMessages: summaries,
		ShouldCompress:  usage.ShouldCompress,
	}
}

// Policy returns the manager's validated policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// effectiveStrategy resolves auto routing and degrades summarization
// strategies to trimming when no summarization capability is wired.
func (m *Manager) effectiveStrategy(msgs []Message) Strategy {
	strategy := m.policy.Strategy
	if strategy == StrategyAuto {
		if len(msgs) > autoSmartThreshold {
			strategy = StrategySmart
		} else {
			strategy = StrategyTrim
		}
	}
	if (strategy == StrategySmart || strategy == StrategySummarize) && m.summarizer == nil {
		m.logger.Debug("no summary provider configured, degrading to trim",
			"strategy", string(strategy))
		return StrategyTrim
	}
	return strategy
}

// compressSummarize splits off the newest PreserveRecent messages and
// summarizes the remainder into the budget left after them. If that budget
// is below a minimal floor the summary would be useless, so it falls back to
// plain trimming.
func (m *Manager) compressSummarize(ctx context.Context, msgs []Message, target int) []Message {
	n := m.policy.PreserveRecent
	if n > len(msgs) {
		n = len(msgs)
	}
	older, recent := msgs[:len(msgs)-n], msgs[len(msgs)-n:]

	recentTokens := 0
	for _, msg := range recent {
		recentTokens += m.accountant.CountMessage(msg)
	}
	olderTokens := 0
	for _, msg := range older {
		olderTokens += m.accountant.CountMessage(msg)
	}

	if olderTokens+recentTokens <= target {
		return msgs
	}

	budget := target - recentTokens
	if budget < minSummaryBudget {
		m.logger.Debug("summary budget below floor, falling back to trimming",
			"budget", budget)
		return m.trimmer.Trim(msgs, target, TrimSmart, m.policy.PreserveSystem)
	}

	summary := m.summarizer.SummarizeRecursive(ctx, older, budget)

	out := make([]Message, 0, len(recent)+1)
	out = append(out, NewSummaryMessage(summary))
	out = append(out, recent...)
	return out
}

// record hands provenance to the archiver, best-effort.
func (m *Manager) record(ctx context.Context, result *Result, dropped []Message) {
	if m.archiver == nil {
		return
	}

	event := Event{
		ID:              result.ID,
		Strategy:        result.Strategy,
		TokensBefore:    result.TokensBefore,
		TokensAfter:     result.TokensAfter,
		MessagesRemoved: result.MessagesRemoved,
		SummaryCreated:  result.SummaryCreated,
		Duration:        result.Duration,
		Archived:        dropped,
		CreatedAt:       time.Now(),
	}
	if err := m.archiver.RecordCompression(ctx, event); err != nil {
		m.logger.Warn("failed to record compression event",
			"event_id", event.ID,
			"error", err,
		)
	}
}

// droppedMessages returns the input messages absent from the output,
// matched by identity.
func droppedMessages(in, out []Message) []Message {
	kept := make(map[uuid.UUID]bool, len(out))
	for _, msg := range out {
		kept[msg.ID] = true
	}

	var dropped []Message
	for _, msg := range in {
		if !kept[msg.ID] {
			dropped = append(dropped, msg)
		}
	}
	return dropped
}

// summaryCreated reports whether out contains a summary message that was
// not already present in the input.
func summaryCreated(in, out []Message) bool {
	existing := make(map[uuid.UUID]bool, len(in))
	for _, msg := range in {
		existing[msg.ID] = true
	}
	for _, msg := range out {
		if msg.IsSummary && !existing[msg.ID] {
			return true
		}
	}
	return false
}
