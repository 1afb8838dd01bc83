package agent

import (
	"encoding/json"
	"strings"
)

const finalAnswerMarker = "Final Answer:"

// ExtractFinalAnswer returns the trimmed substring after the last
// "Final Answer:" marker, or the whole trimmed text when no marker exists.
func ExtractFinalAnswer(text string) string {
	if i := strings.LastIndex(text, finalAnswerMarker); i >= 0 {
		return strings.TrimSpace(text[i+len(finalAnswerMarker):])
	}
	return strings.TrimSpace(text)
}

// CoerceOutput unwraps agent results that arrive as a JSON object with an
// "output" field; anything else passes through unchanged.
func CoerceOutput(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
		return trimmed
	}
	raw, ok := wrapped["output"]
	if !ok {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
