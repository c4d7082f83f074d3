package llm

// LastAssistantText walks msgs from the tail and returns the first assistant
// message with non-empty content, or "" when none exists.
func LastAssistantText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" && msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}

// StripSystem returns msgs without any system messages, preserving order.
// Agents re-materialize their own system instructions per turn.
func StripSystem(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "system" {
			continue
		}
		out = append(out, m)
	}
	return out
}
