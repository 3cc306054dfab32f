package ctxpress

import (
	"fmt"
)

// Strategy selects how the engine reduces context when over budget.
type Strategy string

const (
	// StrategyAuto routes short histories to trimming and long ones to the
	// event-preserving smart strategy.
	StrategyAuto Strategy = "auto"

	// StrategyTrim drops messages by importance score without any LLM call.
	StrategyTrim Strategy = "trim"

	// StrategySummarize condenses everything but the most recent messages
	// into a single summary message.
	StrategySummarize Strategy = "summarize"

	// StrategySmart summarizes routine messages while keeping key-event
	// messages verbatim.
	StrategySmart Strategy = "smart"

	// StrategyOff disables compression entirely.
	StrategyOff Strategy = "off"
)

// TrimStrategy selects the tie-break policy used by the Trimmer.
type TrimStrategy string

const (
	// TrimLast keeps the maximal suffix of messages that fits the budget.
	TrimLast TrimStrategy = "last"

	// TrimFirst keeps the maximal prefix of messages that fits the budget.
	TrimFirst TrimStrategy = "first"

	// TrimMiddle keeps a prefix and a suffix, each fitting half the budget.
	TrimMiddle TrimStrategy = "middle"

	// TrimSmart keeps the highest-scoring messages that fit the budget,
	// returned in chronological order.
	TrimSmart TrimStrategy = "smart"
)

// Default policy values.
const (
	DefaultStrategy         = StrategyAuto
	DefaultTriggerThreshold = 0.8
	DefaultTargetRatio      = 0.5
	DefaultPreserveRecent   = 5
)

// Policy is the immutable configuration of a compression pass.
type Policy struct {
	// Strategy is the compression strategy to dispatch on.
	// Default: StrategyAuto
	Strategy Strategy

	// MaxTokens is the token budget compression works against. Zero means
	// derive it from the model's limits (context window minus the
	// completion reservation) at Manager construction.
	MaxTokens int

	// TriggerThreshold is the usage ratio (0-1] at which compression
	// begins. Default: 0.8
	TriggerThreshold float64

	// TargetRatio is the post-compression usage goal as a fraction of
	// MaxTokens, in (0-1). Default: 0.5
	TargetRatio float64

	// PreserveRecent is how many of the newest messages the summarize
	// strategy keeps untouched. Default: 5
	PreserveRecent int

	// PreserveSystem keeps system messages out of eviction. Default: true
	PreserveSystem bool

	// EnableSummarization permits strategies that call the summarization
	// capability. Must be true for StrategySummarize and StrategySmart.
	// Default: true
	EnableSummarization bool
}

// DefaultPolicy returns a Policy with sensible defaults.
func DefaultPolicy() Policy {
	return Policy{
		Strategy:            DefaultStrategy,
		TriggerThreshold:    DefaultTriggerThreshold,
		TargetRatio:         DefaultTargetRatio,
		PreserveRecent:      DefaultPreserveRecent,
		PreserveSystem:      true,
		EnableSummarization: true,
	}
}

// NewPolicy applies defaults to p and validates it. This is the only point
// at which policy errors can occur; a validated policy never fails at
// compression time.
func NewPolicy(p Policy) (Policy, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// ApplyDefaults fills in zero values with defaults. MaxTokens is left as-is:
// zero means "derive from the model limits". The boolean fields default to
// true via DefaultPolicy and cannot be distinguished from an explicit false
// here, so they are not touched.
func (p *Policy) ApplyDefaults() {
	if p.Strategy == "" {
		p.Strategy = DefaultStrategy
	}
	if p.TriggerThreshold == 0 {
		p.TriggerThreshold = DefaultTriggerThreshold
	}
	if p.TargetRatio == 0 {
		p.TargetRatio = DefaultTargetRatio
	}
	if p.PreserveRecent == 0 {
		p.PreserveRecent = DefaultPreserveRecent
	}
}

// Validate checks all field ranges and the summarization invariant. It
// returns an error wrapping ErrInvalidPolicy or ErrSummarizationRequired.
func (p Policy) Validate() error {
	switch p.Strategy {
	case StrategyAuto, StrategyTrim, StrategySummarize, StrategySmart, StrategyOff:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidPolicy, p.Strategy)
	}

	if p.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must be non-negative, got %d", ErrInvalidPolicy, p.MaxTokens)
	}

	if p.TriggerThreshold <= 0 || p.TriggerThreshold > 1 {
		return fmt.Errorf("%w: trigger_threshold must be in (0, 1], got %g", ErrInvalidPolicy, p.TriggerThreshold)
	}

	if p.TargetRatio <= 0 || p.TargetRatio >= 1 {
		return fmt.Errorf("%w: target_ratio must be in (0, 1), got %g", ErrInvalidPolicy, p.TargetRatio)
	}

	if p.PreserveRecent < 0 {
		return fmt.Errorf("%w: preserve_recent must be non-negative, got %d", ErrInvalidPolicy, p.PreserveRecent)
	}

	if (p.Strategy == StrategySummarize || p.Strategy == StrategySmart) && !p.EnableSummarization {
		return fmt.Errorf("%w: strategy %q", ErrSummarizationRequired, p.Strategy)
	}

	return nil
}

// TargetTokens returns the post-compression token budget.
func (p Policy) TargetTokens() int {
	return int(float64(p.MaxTokens) * p.TargetRatio)
}
