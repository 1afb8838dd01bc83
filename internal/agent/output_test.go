package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFinalAnswer(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"after marker", "I ran the query.\nFinal Answer: 42", "42"},
		{"last marker wins", "Final Answer: draft\nmore reasoning\nFinal Answer: 42", "42"},
		{"no marker returns whole text", "  just an answer  ", "just an answer"},
		{"marker with trailing whitespace", "Final Answer:   120 employees \n", "120 employees"},
		{"empty after marker", "Final Answer:", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractFinalAnswer(tc.in))
		})
	}
}

func TestCoerceOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text passes through", "Final Answer: 42", "Final Answer: 42"},
		{"output field unwrapped", `{"output": "Final Answer: 42"}`, "Final Answer: 42"},
		{"non-string output kept raw", `{"output": 42}`, "42"},
		{"object without output untouched", `{"result": "x"}`, `{"result": "x"}`},
		{"invalid json untouched", `{broken`, `{broken`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CoerceOutput(tc.in))
		})
	}
}
