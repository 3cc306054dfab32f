package ctxpress

import "testing"

func TestTokenAccountant_Count(t *testing.T) {
	a := NewTokenAccountant(wordTokenizer{}, "test-model")

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty string", text: "", expected: 0},
		{name: "single word", text: "hello", expected: 1},
		{name: "five words", text: "one two three four five", expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Count(tt.text); got != tt.expected {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestTokenAccountant_CountMessage(t *testing.T) {
	a := NewTokenAccountant(wordTokenizer{}, "test-model")

	// role (1) + content (4) + overhead (3)
	msg := NewUserMessage("one two three four")
	if got := a.CountMessage(msg); got != 8 {
		t.Errorf("CountMessage() = %d, want 8", got)
	}

	// name adds its own tokens
	tool := NewToolMessage("search", "one two")
	// role (1) + content (2) + name (1) + overhead (3)
	if got := a.CountMessage(tool); got != 7 {
		t.Errorf("CountMessage(tool) = %d, want 7", got)
	}
}

func TestTokenAccountant_CountMessages(t *testing.T) {
	a := NewTokenAccountant(wordTokenizer{}, "test-model")

	if got := a.CountMessages(nil); got != 0 {
		t.Errorf("CountMessages(nil) = %d, want 0", got)
	}

	msgs := []Message{
		NewUserMessage("one two"),      // 1 + 2 + 3 = 6
		NewAssistantMessage("one two"), // 1 + 2 + 3 = 6
	}
	// 6 + 6 + reply priming (3)
	if got := a.CountMessages(msgs); got != 15 {
		t.Errorf("CountMessages() = %d, want 15", got)
	}
}

func TestTokenAccountant_OverheadDominatesEmptyMessages(t *testing.T) {
	// A list of empty messages must still cost something; omitting the
	// per-message overhead systematically under-counts.
	a := NewTokenAccountant(wordTokenizer{}, "test-model")

	msgs := []Message{NewUserMessage(""), NewUserMessage("")}
	// 2 * (role 1 + overhead 3) + reply priming 3
	if got := a.CountMessages(msgs); got != 11 {
		t.Errorf("CountMessages(empty contents) = %d, want 11", got)
	}
}
