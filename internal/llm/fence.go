package llm

import "strings"

// StripCodeFence removes a leading ``` or ```json line and a trailing ```
// from a model reply. Text without a fence is returned trimmed.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
		text = text[4:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
