package core

import (
	"encoding/json"
	"fmt"
)

// EstimateTokens approximates the token count of a text without invoking a
// tokenizer. The 4-characters-per-token heuristic tracks common BPE
// vocabularies closely enough for context budgeting; exact counts come back
// from the provider in usage reports.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Stringify renders an arbitrary tool result payload as text for token
// estimation and prompt assembly. Strings pass through, everything else is
// JSON encoded with a fmt fallback for non-serializable values.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
