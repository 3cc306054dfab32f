package ctxpress

// TokenUsage is a snapshot of context-window consumption. It is computed
// fresh on every check and never cached across calls, because the message
// history changes between calls.
type TokenUsage struct {
	// PromptTokens is the count for the system prompt plus all messages.
	PromptTokens int

	// CompletionTokens is the completion reservation included in the check.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int

	// MaxTokens is the budget the usage is measured against.
	MaxTokens int

	// UsageRatio is TotalTokens / MaxTokens.
	UsageRatio float64

	// ShouldCompress is true once UsageRatio reaches the trigger threshold.
	ShouldCompress bool
}

// UsageMonitor combines a TokenAccountant with a model's context-window
// limit to produce usage snapshots. The budget is derived once from the
// model-limits table (context window minus the completion reservation) and
// cached for the monitor's lifetime.
type UsageMonitor struct {
	accountant *TokenAccountant
	maxTokens  int
	trigger    float64
}

// NewUsageMonitor creates a monitor for the accountant's model. If maxTokens
// is zero it is derived from the tokenizer's model-limits table.
func NewUsageMonitor(accountant *TokenAccountant, tokenizer Tokenizer, model string, maxTokens int, trigger float64) *UsageMonitor {
	if maxTokens <= 0 {
		window, maxCompletion := tokenizer.ModelLimits(model)
		maxTokens = window - maxCompletion
	}
	return &UsageMonitor{
		accountant: accountant,
		maxTokens:  maxTokens,
		trigger:    trigger,
	}
}

// Check computes a fresh usage snapshot for the given history.
func (m *UsageMonitor) Check(msgs []Message, systemPrompt string, reservedCompletionTokens int) TokenUsage {
	prompt := m.accountant.CountMessages(msgs)
	if systemPrompt != "" {
		prompt += m.accountant.Count(systemPrompt) + messageOverheadTokens
	}

	total := prompt + reservedCompletionTokens
	ratio := float64(total) / float64(m.maxTokens)

	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: reservedCompletionTokens,
		TotalTokens:      total,
		MaxTokens:        m.maxTokens,
		UsageRatio:       ratio,
		ShouldCompress:   ratio >= m.trigger,
	}
}

// MaxTokens returns the cached budget.
func (m *UsageMonitor) MaxTokens() int {
	return m.maxTokens
}
