package ctxpress

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Keywords that raise a message's importance score during smart trimming.
var trimKeywords = []string{
	"error", "important", "critical", "remember", "note",
	"preference", "setting", "decided", "agreed",
}

// Smart trimming score weights.
const (
	recencyWindow    = 5
	recencyBonus     = 5.0
	lengthBonusCap   = 2.0
	lengthBonusScale = 500.0
	keywordBonus     = 1.0
	roleBonus        = 1.0
)

// scoredMessage pairs a message with its importance score and original
// index. Carrying the index makes restoring chronological order O(n log n)
// and keeps duplicate-content messages distinct.
type scoredMessage struct {
	index  int
	msg    Message
	score  float64
	tokens int
}

// Trimmer selects a subset of messages under a token budget. All strategies
// are deterministic, synchronous, and side-effect free; a Trimmer is safe to
// share across goroutines.
type Trimmer struct {
	accountant *TokenAccountant
}

// NewTrimmer creates a Trimmer using the given accountant.
func NewTrimmer(accountant *TokenAccountant) *Trimmer {
	return &Trimmer{accountant: accountant}
}

// Trim returns the subset of msgs selected by strategy whose cumulative
// token count fits targetTokens. With preserveSystem, system messages are
// always included (even when the budget alone cannot cover them) and keep
// their original positions, so a mid-conversation summary message stays
// where it was; otherwise they compete for the budget like any other
// message. Output order is always chronological.
func (t *Trimmer) Trim(msgs []Message, targetTokens int, strategy TrimStrategy, preserveSystem bool) []Message {
	if len(msgs) == 0 {
		return msgs
	}

	var rest []Message
	systemCount := 0
	budget := targetTokens
	if preserveSystem {
		for _, msg := range msgs {
			if msg.Role == RoleSystem {
				systemCount++
				budget -= t.accountant.CountMessage(msg)
			} else {
				rest = append(rest, msg)
			}
		}
		if budget < 0 {
			budget = 0
		}
	} else {
		rest = msgs
	}

	var kept []Message
	switch strategy {
	case TrimFirst:
		kept = t.trimFirst(rest, budget)
	case TrimMiddle:
		kept = t.trimMiddle(rest, budget)
	case TrimSmart:
		kept = t.trimSmart(rest, budget)
	default:
		kept = t.trimLast(rest, budget)
	}

	keptIDs := make(map[uuid.UUID]bool, len(kept))
	for _, msg := range kept {
		keptIDs[msg.ID] = true
	}

	out := make([]Message, 0, systemCount+len(kept))
	for _, msg := range msgs {
		if keptIDs[msg.ID] || (preserveSystem && msg.Role == RoleSystem) {
			out = append(out, msg)
		}
	}
	return out
}

// trimLast keeps the maximal suffix that fits the budget, scanning from the
// newest message backward.
func (t *Trimmer) trimLast(msgs []Message, budget int) []Message {
	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := t.accountant.CountMessage(msgs[i])
		if total+cost > budget {
			break
		}
		total += cost
		start = i
	}

	// An orphaned tool result at the cut means its assistant call was
	// dropped; drop the result too.
	for start < len(msgs) && msgs[start].Role == RoleTool {
		start++
	}

	return append([]Message(nil), msgs[start:]...)
}

// trimFirst keeps the maximal prefix that fits the budget, scanning from the
// oldest message forward.
func (t *Trimmer) trimFirst(msgs []Message, budget int) []Message {
	total := 0
	end := 0
	for i := 0; i < len(msgs); i++ {
		cost := t.accountant.CountMessage(msgs[i])
		if total+cost > budget {
			break
		}
		total += cost
		end = i + 1
	}

	// If the first dropped message is a tool result, the kept prefix ends
	// with its assistant call; pull the cut back so the pair stays whole.
	for end > 0 && end < len(msgs) && msgs[end].Role == RoleTool {
		end--
	}

	return append([]Message(nil), msgs[:end]...)
}

// trimMiddle keeps a prefix and a suffix, each fitting half the budget, and
// de-duplicates any overlap by index.
func (t *Trimmer) trimMiddle(msgs []Message, budget int) []Message {
	half := budget / 2

	total := 0
	end := 0
	for i := 0; i < len(msgs); i++ {
		cost := t.accountant.CountMessage(msgs[i])
		if total+cost > half {
			break
		}
		total += cost
		end = i + 1
	}

	total = 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := t.accountant.CountMessage(msgs[i])
		if total+cost > half {
			break
		}
		total += cost
		start = i
	}

	if start < end {
		start = end
	}

	// Keep tool call/result pairs whole at both edges of the gap.
	for end > 0 && end < start && msgs[end].Role == RoleTool {
		end--
	}
	for start > end && start < len(msgs) && msgs[start].Role == RoleTool {
		start++
	}

	out := make([]Message, 0, end+len(msgs)-start)
	out = append(out, msgs[:end]...)
	out = append(out, msgs[start:]...)
	return out
}

// trimSmart scores every message, greedily accepts the highest-scoring ones
// that fit the budget, then restores chronological order.
func (t *Trimmer) trimSmart(msgs []Message, budget int) []Message {
	scored := make([]scoredMessage, len(msgs))
	for i, msg := range msgs {
		scored[i] = scoredMessage{
			index:  i,
			msg:    msg,
			score:  scoreMessage(msg, i, len(msgs)),
			tokens: t.accountant.CountMessage(msg),
		}
	}

	// Highest score first; newer wins ties.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].index > scored[j].index
	})

	var kept []scoredMessage
	used := 0
	for _, sm := range scored {
		if used+sm.tokens > budget {
			continue
		}
		used += sm.tokens
		kept = append(kept, sm)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].index < kept[j].index })

	out := make([]Message, len(kept))
	for i, sm := range kept {
		out[i] = sm.msg
	}
	return out
}

// scoreMessage computes the importance score used by smart trimming:
// a recency bonus for the newest messages, a length bonus capped at 2,
// one point per importance keyword, and one point for user/assistant roles.
func scoreMessage(msg Message, index, total int) float64 {
	var score float64

	if index >= total-recencyWindow {
		score += recencyBonus
	}

	lengthBonus := float64(len(msg.Content)) / lengthBonusScale
	if lengthBonus > lengthBonusCap {
		lengthBonus = lengthBonusCap
	}
	score += lengthBonus

	lower := strings.ToLower(msg.Content)
	for _, kw := range trimKeywords {
		if strings.Contains(lower, kw) {
			score += keywordBonus
		}
	}

	if msg.Role == RoleUser || msg.Role == RoleAssistant {
		score += roleBonus
	}

	return score
}
