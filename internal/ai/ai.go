package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoCompletion is returned when a tool-use conversation ends without any
// usable assistant text.
var ErrNoCompletion = errors.New("model produced no completion")

// Tool is a capability the model may invoke during a run. Run receives the
// raw JSON input the model supplied; a returned error is fed back to the
// model as a failed tool result rather than aborting the conversation.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Run         func(ctx context.Context, input json.RawMessage) (string, error)
}

// Runner drives a tool-use conversation with a reasoning backend to
// completion and returns the final assistant text.
type Runner interface {
	Run(ctx context.Context, system, prompt string, tools []Tool) (string, error)
}
