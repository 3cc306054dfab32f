package ctxpress

import "fmt"

// Option is a functional option for configuring a Manager.
type Option func(*Manager) error

// WithModel sets the model the engine counts tokens for. The default is
// empty, which resolves to the tokenizer's fallback limits.
func WithModel(model string) Option {
	return func(m *Manager) error {
		m.model = model
		return nil
	}
}

// WithSummaryProvider wires the summarization capability. Without one, the
// summarize and smart strategies degrade to trimming.
func WithSummaryProvider(provider SummaryProvider) Option {
	return func(m *Manager) error {
		m.provider = provider
		return nil
	}
}

// WithArchiver wires a provenance store. Archiver failures are logged and
// never fail a compression pass.
func WithArchiver(archiver Archiver) Option {
	return func(m *Manager) error {
		m.archiver = archiver
		return nil
	}
}

// WithLogger sets the logger. The default is a no-op.
func WithLogger(logger Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = noopLogger{}
		}
		m.logger = logger
		return nil
	}
}

// WithReservedCompletionTokens reserves headroom for the model's reply when
// checking usage.
func WithReservedCompletionTokens(n int) Option {
	return func(m *Manager) error {
		if n < 0 {
			return fmt.Errorf("%w: reserved completion tokens must be non-negative, got %d", ErrInvalidPolicy, n)
		}
		m.reservedCompletionTokens = n
		return nil
	}
}
