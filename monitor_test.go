package ctxpress

import (
	"math"
	"testing"
)

func TestUsageMonitor_Check(t *testing.T) {
	tok := wordTokenizer{window: 1200, completion: 200}
	a := NewTokenAccountant(tok, "test-model")
	m := NewUsageMonitor(a, tok, "test-model", 0, 0.8)

	if m.MaxTokens() != 1000 {
		t.Fatalf("MaxTokens() = %d, want 1000 (window minus completion)", m.MaxTokens())
	}

	// 10 messages of 50 content tokens: 10 * (1 + 50 + 3) + 3 = 543
	var msgs []Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, userMsgOfTokens(50))
	}

	usage := m.Check(msgs, "", 0)
	if usage.PromptTokens != 543 {
		t.Errorf("PromptTokens = %d, want 543", usage.PromptTokens)
	}
	if usage.ShouldCompress {
		t.Error("ShouldCompress = true below threshold")
	}
	if math.Abs(usage.UsageRatio-0.543) > 1e-9 {
		t.Errorf("UsageRatio = %g, want 0.543", usage.UsageRatio)
	}
}

func TestUsageMonitor_SystemPromptCounted(t *testing.T) {
	tok := wordTokenizer{window: 1000, completion: 0}
	a := NewTokenAccountant(tok, "test-model")
	m := NewUsageMonitor(a, tok, "test-model", 0, 0.8)

	msgs := []Message{userMsgOfTokens(10)}
	without := m.Check(msgs, "", 0)
	with := m.Check(msgs, words(20), 0)

	// 20 system prompt tokens + per-message overhead
	if with.PromptTokens-without.PromptTokens != 20+messageOverheadTokens {
		t.Errorf("system prompt added %d tokens, want %d",
			with.PromptTokens-without.PromptTokens, 20+messageOverheadTokens)
	}
}

func TestUsageMonitor_ReservedCompletionTriggers(t *testing.T) {
	tok := wordTokenizer{window: 1000, completion: 0}
	a := NewTokenAccountant(tok, "test-model")
	m := NewUsageMonitor(a, tok, "test-model", 0, 0.8)

	// 700 prompt tokens: 1 message of 693 content tokens (1+693+3+3)
	msgs := []Message{userMsgOfTokens(693)}

	if m.Check(msgs, "", 0).ShouldCompress {
		t.Error("ShouldCompress without reservation, ratio 0.7")
	}
	if !m.Check(msgs, "", 200).ShouldCompress {
		t.Error("reservation pushes ratio to 0.9, ShouldCompress = false")
	}
}

func TestUsageMonitor_ExplicitMaxTokensWins(t *testing.T) {
	tok := wordTokenizer{window: 100000, completion: 1000}
	a := NewTokenAccountant(tok, "test-model")
	m := NewUsageMonitor(a, tok, "test-model", 500, 0.8)

	if m.MaxTokens() != 500 {
		t.Errorf("MaxTokens() = %d, want explicit 500", m.MaxTokens())
	}
}

func TestUsageMonitor_ThresholdBoundaryInclusive(t *testing.T) {
	tok := wordTokenizer{window: 100, completion: 0}
	a := NewTokenAccountant(tok, "test-model")
	m := NewUsageMonitor(a, tok, "test-model", 0, 0.8)

	// Exactly 80 tokens: 1 message with 73 content tokens (1+73+3+3).
	msgs := []Message{userMsgOfTokens(73)}
	usage := m.Check(msgs, "", 0)
	if usage.TotalTokens != 80 {
		t.Fatalf("TotalTokens = %d, want 80", usage.TotalTokens)
	}
	if !usage.ShouldCompress {
		t.Error("ratio exactly at threshold must trigger compression")
	}
}
