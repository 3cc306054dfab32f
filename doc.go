// Package ctxpress keeps a growing LLM conversation inside a bounded token
// budget while preserving the information the model needs to answer correctly.
//
// The engine is opinionated about one thing only: compression must never fail
// a request. Every runtime error inside a compression pass is recovered with a
// deterministic fallback chain (summarize -> smart trim -> identity), so
// Manager.Compress always returns a usable message list.
//
// # Components
//
//   - TokenAccountant counts tokens for text and message lists, including
//     per-message formatting overhead.
//   - UsageMonitor turns counts plus a model's context window into a usage
//     snapshot and a compression trigger decision.
//   - Trimmer selects a subset of messages under a budget without any I/O
//     (last, first, middle, and score-based smart strategies).
//   - Summarizer condenses message groups through an injected summarization
//     capability, with recursive, hierarchical, and event-preserving variants.
//   - Manager is the facade: it decides whether to compress, picks a strategy
//     from the configured Policy, and returns the compacted list.
//
// # Quick Start
//
//	tok := tokenizer.New()
//	mgr, err := ctxpress.NewManager(
//	    ctxpress.Policy{Strategy: ctxpress.StrategyAuto, TriggerThreshold: 0.8},
//	    tok,
//	    ctxpress.WithModel("claude-sonnet-4-5-20250929"),
//	    ctxpress.WithSummaryProvider(provider.NewAnthropicSummarizer(&client, "claude-3-5-haiku-20241022", 4096)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	compacted := mgr.Compress(ctx, messages, systemPrompt)
//
// The two external capabilities (token counting and summarization) are
// injected interfaces. The tokenizer subpackage ships a tiktoken-backed
// default; the provider subpackage ships Anthropic-backed implementations of
// both. The archive subpackage optionally records compression provenance in
// PostgreSQL.
package ctxpress
