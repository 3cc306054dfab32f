package ctxpress

import (
	"context"
	"strings"
	"sync"
)

// wordTokenizer counts one token per whitespace-separated word, which makes
// budget arithmetic in tests exact.
type wordTokenizer struct {
	window     int
	completion int
}

func (t wordTokenizer) Count(model, text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

func (t wordTokenizer) ModelLimits(model string) (int, int) {
	return t.window, t.completion
}

// scriptedProvider runs a function per Summarize call and counts calls.
type scriptedProvider struct {
	mu    sync.Mutex
	fn    func(prompt string) (string, error)
	calls int
}

func (p *scriptedProvider) Summarize(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.fn(prompt)
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// words returns n repetitions of "w" joined by spaces, i.e. n tokens under
// wordTokenizer.
func words(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSpace(strings.Repeat("w ", n))
}

// userMsgOfTokens builds a user message whose CountMessage cost under
// wordTokenizer is contentTokens + 1 (role) + 3 (overhead).
func userMsgOfTokens(contentTokens int) Message {
	return NewUserMessage(words(contentTokens))
}

// promptContains lets scripted providers inspect what they were asked to
// summarize.
func promptContains(prompt, needle string) bool {
	return strings.Contains(prompt, needle)
}

// sameMessages reports whether two slices hold the same messages in the
// same order, by identity.
func sameMessages(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
