package ctxpress

// Provider-side formatting overhead. Each message costs a few tokens beyond
// its visible text (role markers, separators), and the provider spends a
// fixed amount priming the reply. Omitting these systematically under-counts
// and causes budget overruns.
const (
	messageOverheadTokens = 3
	replyPrimingTokens    = 3
)

// TokenAccountant counts tokens for raw text and structured message lists
// for one model. It is a pure wrapper around the injected Tokenizer: no
// side effects, safe for concurrent use.
type TokenAccountant struct {
	tokenizer Tokenizer
	model     string
}

// NewTokenAccountant creates an accountant bound to the given model.
func NewTokenAccountant(tokenizer Tokenizer, model string) *TokenAccountant {
	return &TokenAccountant{tokenizer: tokenizer, model: model}
}

// Count returns the token count of raw text.
func (a *TokenAccountant) Count(text string) int {
	if text == "" {
		return 0
	}
	return a.tokenizer.Count(a.model, text)
}

// CountMessage returns the token count of a single message including the
// per-message formatting overhead.
func (a *TokenAccountant) CountMessage(msg Message) int {
	total := a.Count(string(msg.Role)) + a.Count(msg.Content) + messageOverheadTokens
	if msg.Name != "" {
		total += a.Count(msg.Name)
	}
	return total
}

// CountMessages returns the token count of a message list including the
// per-message overhead and the fixed reply-priming constant.
func (a *TokenAccountant) CountMessages(msgs []Message) int {
	if len(msgs) == 0 {
		return 0
	}
	total := replyPrimingTokens
	for _, msg := range msgs {
		total += a.CountMessage(msg)
	}
	return total
}

// Model returns the model the accountant counts for.
func (a *TokenAccountant) Model() string {
	return a.model
}
