package ctxpress

import (
	"fmt"
	"strings"
)

// buildSummaryPrompt creates the user prompt sent to the summarization
// capability. The provider carries its own system prompt; this only frames
// the conversation and the size goal.
func buildSummaryPrompt(conversation string, targetTokens int) string {
	return fmt.Sprintf(`Condense the following conversation into roughly %d tokens.

<conversation>
%s
</conversation>

Preserve decisions, errors, user preferences, constraints, and open tasks.
Keep specific details (names, values, error messages) over commentary.
Reply with the summary text only.`, targetTokens, conversation)
}

// formatMessagesAsText renders messages as a readable transcript for
// summarization.
func formatMessagesAsText(msgs []Message) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleLabel(msg.Role))
		if msg.Name != "" {
			b.WriteString(" (")
			b.WriteString(msg.Name)
			b.WriteString(")")
		}
		b.WriteString(":\n")
		b.WriteString(msg.Content)
	}
	return b.String()
}

func roleLabel(role Role) string {
	switch role {
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return "User"
	}
}
