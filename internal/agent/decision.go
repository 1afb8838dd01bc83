package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"datacopilot/internal/ai"
	"datacopilot/internal/chart"
	"datacopilot/internal/dataset"
)

// DecisionFallback is the fixed text produced when the decision step cannot
// parse its own output.
const DecisionFallback = "Error in decision-making process."

const plotSavedSentinel = "PLOT_SAVED"

const decisionSystem = `You are a helpful AI assistant expert that analyzes tabular data and decides how to present an answer.

Your task: given a question and a prior data-grounded response, decide whether the user is best served by
1. Text: an explanation, reasoning, or anything explicitly requested as text, or
2. Plot: numerical comparisons, distributions, or trends that are clearer as a chart.

If a plot is chosen, call the render_chart tool with the chart type, title, axis labels, and the labeled values to plot. Use the sample_rows tool if you need to inspect the underlying data. The render_chart tool saves the image and replies %s on success.
After a successful %s, or for a text response, finish your reply with the answer after a "Final Answer:" marker.`

const decisionTemplate = `Question: %s
Response: '%s'

Decide whether this is better answered as text or as a plot, then produce the final answer.`

// Mode tags a decision result.
type Mode int

const (
	ModeText Mode = iota
	ModeChart
)

// Decision is the tagged outcome of the text-vs-chart step. ChartPath is set
// only for ModeChart and points at the artifact file.
type Decision struct {
	Mode      Mode
	Text      string
	ChartPath string
}

// DecisionEngine classifies a question/answer pair into a textual or chart
// response. Chart rendering happens as a side effect through the render tool,
// writing the single well-known artifact file.
type DecisionEngine struct {
	llm          ai.Runner
	store        *dataset.Store
	artifactPath string
}

func NewDecisionEngine(llm ai.Runner, store *dataset.Store, artifactPath string) *DecisionEngine {
	return &DecisionEngine{llm: llm, store: store, artifactPath: artifactPath}
}

// Decide runs the decision step. A malformed model reply is swallowed into
// the fixed fallback text; other errors propagate.
func (e *DecisionEngine) Decide(ctx context.Context, question, initialResponse string) (Decision, error) {
	prompt := fmt.Sprintf(decisionTemplate, question, initialResponse)
	system := fmt.Sprintf(decisionSystem, plotSavedSentinel, plotSavedSentinel)

	out, err := e.llm.Run(ctx, system, prompt, []ai.Tool{e.sampleTool(), e.renderTool()})
	if err != nil {
		if isNoCompletion(err) {
			log.Printf("decision step returned no usable output: %v", err)
			return e.tagged(DecisionFallback), nil
		}
		return Decision{}, err
	}

	text := ExtractFinalAnswer(CoerceOutput(out))
	if text == "" {
		text = DecisionFallback
	}
	return e.tagged(text), nil
}

// tagged inspects the artifact file: its presence is the sole signal that the
// decision included a visualization.
func (e *DecisionEngine) tagged(text string) Decision {
	if _, err := os.Stat(e.artifactPath); err == nil {
		return Decision{Mode: ModeChart, Text: text, ChartPath: e.artifactPath}
	}
	return Decision{Mode: ModeText, Text: text}
}

func (e *DecisionEngine) sampleTool() ai.Tool {
	return ai.Tool{
		Name:        "sample_rows",
		Description: "Return the first n rows of the dataset as text, including the header.",
		InputSchema: map[string]interface{}{
			"n": map[string]interface{}{
				"type":        "integer",
				"description": "Number of rows to sample, at most 20.",
			},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				N int `json:"n"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid sample input: %w", err)
			}
			frame := e.store.Frame()
			if frame == nil {
				return "", fmt.Errorf("dataset is not loaded")
			}
			n := args.N
			if n <= 0 || n > 20 {
				n = 20
			}
			return frame.SampleRows(n), nil
		},
	}
}

func (e *DecisionEngine) renderTool() ai.Tool {
	return ai.Tool{
		Name:        "render_chart",
		Description: "Render a bar, line, or pie chart from labeled values and save it as the answer's image.",
		InputSchema: map[string]interface{}{
			"type": map[string]interface{}{
				"type":        "string",
				"description": "Chart type: bar, line, or pie.",
			},
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Chart title.",
			},
			"x_label": map[string]interface{}{
				"type":        "string",
				"description": "X axis label.",
			},
			"y_label": map[string]interface{}{
				"type":        "string",
				"description": "Y axis label.",
			},
			"labels": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Category label for each value, in order.",
			},
			"values": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "number"},
				"description": "The numeric values to plot, in the same order as labels.",
			},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var spec chart.Spec
			if err := json.Unmarshal(input, &spec); err != nil {
				return "", fmt.Errorf("invalid chart spec: %w", err)
			}
			if err := chart.Render(spec, e.artifactPath); err != nil {
				return "", err
			}
			return plotSavedSentinel, nil
		},
	}
}
