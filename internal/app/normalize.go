package app

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ApologyAnswer replaces answers where the reasoning backends gave up or
// produced unparseable scaffolding.
const ApologyAnswer = "Sorry, your query could not be processed. Please ask a specific database-related question."

// ProcessingErrorAnswer is the outermost fallback for unexpected failures
// during a chat turn. Raw error detail never reaches the caller.
const ProcessingErrorAnswer = "Sorry, there was a problem processing your request. Please try again or contact support."

const troubleshootingMarker = "For troubleshooting, visit:"

// Known phrasings the backends emit when they give up instead of answering.
// Substring match, case-insensitive. The list mirrors observed failures and
// is not exhaustive.
var giveUpPhrases = []string{
	"error in decision-making process",
	"could not parse",
	"please provide me with a specific question",
	"i am an ai assistant designed to interact with a sql database",
}

// PresentAnswer turns a raw extracted answer into user-facing text: raw
// collections become readable lines, troubleshooting links are dropped, and
// give-up phrasings collapse into the fixed apology.
func PresentAnswer(answer string) string {
	answer = flattenCollections(answer)

	if i := strings.Index(answer, troubleshootingMarker); i >= 0 {
		answer = answer[:i]
	}
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return ApologyAnswer
	}
	lower := strings.ToLower(answer)
	for _, phrase := range giveUpPhrases {
		if strings.Contains(lower, phrase) {
			return ApologyAnswer
		}
	}
	return answer
}

// flattenCollections rewrites an answer that is literally a JSON array of
// objects or arrays into newline-joined human-readable lines. Anything else
// passes through untouched.
func flattenCollections(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if !strings.HasPrefix(trimmed, "[") {
		return answer
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil || len(items) == 0 {
		return answer
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]interface{}:
			lines = append(lines, flattenMapping(v))
		case []interface{}:
			parts := make([]string, len(v))
			for i, elem := range v {
				parts[i] = renderScalar(elem)
			}
			lines = append(lines, strings.Join(parts, " - "))
		default:
			return answer
		}
	}
	return strings.Join(lines, "\n")
}

// flattenMapping special-cases the department/count shape the SQL agent
// commonly returns; other mappings render as sorted key: value pairs.
func flattenMapping(m map[string]interface{}) string {
	department, hasDept := m["department"]
	count, hasCount := m["count"]
	if hasDept && hasCount {
		return fmt.Sprintf("%s - %s employees", renderScalar(department), renderScalar(count))
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, renderScalar(m[k]))
	}
	return strings.Join(parts, ", ")
}

func renderScalar(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
