package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacopilot/internal/ai"
)

func TestDecisionEngine_TextDecision(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "img.png")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		assert.Contains(t, prompt, "which department is largest?")
		assert.Contains(t, prompt, "'Sales has the most employees.'")
		return "Final Answer: Sales has the most employees.", nil
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	d, err := engine.Decide(context.Background(), "which department is largest?", "Sales has the most employees.")
	require.NoError(t, err)
	assert.Equal(t, ModeText, d.Mode)
	assert.Equal(t, "Sales has the most employees.", d.Text)
	assert.Empty(t, d.ChartPath)
}

func TestDecisionEngine_ChartDecision(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "img.png")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		tool := findTool(t, tools, "render_chart")

		input, _ := json.Marshal(map[string]interface{}{
			"type":    "bar",
			"title":   "Employees per department",
			"x_label": "Department",
			"y_label": "Employees",
			"labels":  []string{"Sales", "HR"},
			"values":  []float64{2, 1},
		})
		out, err := tool.Run(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "PLOT_SAVED", out)

		return "PLOT_SAVED\nFinal Answer: Here is the employee distribution.", nil
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	d, err := engine.Decide(context.Background(), "plot employees per department", "Sales: 2, HR: 1")
	require.NoError(t, err)
	assert.Equal(t, ModeChart, d.Mode)
	assert.Equal(t, artifact, d.ChartPath)
	assert.Equal(t, "Here is the employee distribution.", d.Text)
	assert.FileExists(t, artifact)
}

func TestDecisionEngine_RenderToolDrawsPieChart(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "img.png")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		tool := findTool(t, tools, "render_chart")

		input, _ := json.Marshal(map[string]interface{}{
			"type":   "pie",
			"title":  "Department share",
			"labels": []string{"Sales", "HR"},
			"values": []float64{5, 3},
		})
		out, err := tool.Run(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "PLOT_SAVED", out)

		return "PLOT_SAVED\nFinal Answer: Sales holds the larger share.", nil
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	d, err := engine.Decide(context.Background(), "show the department share", "Sales: 5, HR: 3")
	require.NoError(t, err)
	assert.Equal(t, ModeChart, d.Mode)
	assert.FileExists(t, artifact)
}

func TestDecisionEngine_SampleToolReturnsRows(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "img.png")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		tool := findTool(t, tools, "sample_rows")

		input, _ := json.Marshal(map[string]int{"n": 2})
		out, err := tool.Run(ctx, input)
		require.NoError(t, err)
		assert.Contains(t, out, "name, department, salary")
		assert.Contains(t, out, "Alice")

		return "Final Answer: inspected", nil
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	_, err := engine.Decide(context.Background(), "q", "r")
	require.NoError(t, err)
}

func TestDecisionEngine_NoCompletionBecomesFallback(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "img.png")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		return "", ai.ErrNoCompletion
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	d, err := engine.Decide(context.Background(), "q", "r")
	require.NoError(t, err)
	assert.Equal(t, ModeText, d.Mode)
	assert.Equal(t, DecisionFallback, d.Text)
}

func TestDecisionEngine_FallbackStillChartWhenArtifactExists(t *testing.T) {
	// The model rendered a chart and then produced no parseable text: the
	// artifact on disk still marks the decision as a chart.
	artifact := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(artifact, []byte("png"), 0o644))

	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		return "", ai.ErrNoCompletion
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	d, err := engine.Decide(context.Background(), "q", "r")
	require.NoError(t, err)
	assert.Equal(t, ModeChart, d.Mode)
	assert.Equal(t, DecisionFallback, d.Text)
}

func TestDecisionEngine_TransportErrorPropagates(t *testing.T) {
	boom := errors.New("api unreachable")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		return "", boom
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), filepath.Join(t.TempDir(), "img.png"))

	_, err := engine.Decide(context.Background(), "q", "r")
	assert.ErrorIs(t, err, boom)
}

func TestDecisionEngine_RenderToolRejectsBadSpec(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "img.png")
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		tool := findTool(t, tools, "render_chart")

		input, _ := json.Marshal(map[string]interface{}{
			"type":   "scatter",
			"labels": []string{"a"},
			"values": []float64{1},
		})
		_, err := tool.Run(ctx, input)
		assert.Error(t, err)

		return "Final Answer: no chart", nil
	}}
	engine := NewDecisionEngine(llm, newTestStore(t), artifact)

	d, err := engine.Decide(context.Background(), "q", "r")
	require.NoError(t, err)
	assert.Equal(t, ModeText, d.Mode)
}
