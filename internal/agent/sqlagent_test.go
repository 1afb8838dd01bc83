package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"datacopilot/internal/ai"
	"datacopilot/internal/dataset"
)

type fakeRunner struct {
	run func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
	return f.run(ctx, system, prompt, tools)
}

func findTool(t *testing.T, tools []ai.Tool, name string) ai.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not offered", name)
	return ai.Tool{}
}

func newTestStore(t *testing.T) *dataset.Store {
	t.Helper()

	csv := filepath.Join(t.TempDir(), "employees.csv")
	content := "name,department,salary\nAlice,Sales,70000\nBob,Sales,65000\nCarol,HR,60000\n"
	require.NoError(t, os.WriteFile(csv, []byte(content), 0o644))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	store := dataset.NewStore(db, "dataset_rows")
	n, err := store.Reload(context.Background(), csv)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	return store
}

func TestSQLAgent_EmptyQuestion(t *testing.T) {
	agent := NewSQLAgent(&fakeRunner{}, newTestStore(t), 30)

	_, err := agent.Answer(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestSQLAgent_ExtractsFinalAnswer(t *testing.T) {
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		assert.Contains(t, system, "dataset_rows")
		assert.Contains(t, system, "30 results")
		return "Let me check.\nFinal Answer: There are 3 employees.", nil
	}}
	agent := NewSQLAgent(llm, newTestStore(t), 30)

	answer, err := agent.Answer(context.Background(), "how many employees are there?")
	require.NoError(t, err)
	assert.Equal(t, "There are 3 employees.", answer)
}

func TestSQLAgent_QueryToolRunsAgainstMirror(t *testing.T) {
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		tool := findTool(t, tools, "execute_query")

		input, _ := json.Marshal(map[string]string{
			"query": "SELECT department, COUNT(*) AS n FROM dataset_rows GROUP BY department ORDER BY n DESC",
		})
		out, err := tool.Run(ctx, input)
		require.NoError(t, err)
		assert.Contains(t, out, "Sales, 2")
		assert.Contains(t, out, "HR, 1")

		return "Final Answer: Sales has the most employees.", nil
	}}
	agent := NewSQLAgent(llm, newTestStore(t), 30)

	answer, err := agent.Answer(context.Background(), "which department is largest?")
	require.NoError(t, err)
	assert.Equal(t, "Sales has the most employees.", answer)
}

func TestSQLAgent_QueryToolRejectsWrites(t *testing.T) {
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		tool := findTool(t, tools, "execute_query")

		input, _ := json.Marshal(map[string]string{"query": "DELETE FROM dataset_rows"})
		_, err := tool.Run(ctx, input)
		assert.Error(t, err)

		return "Final Answer: done", nil
	}}
	agent := NewSQLAgent(llm, newTestStore(t), 30)

	_, err := agent.Answer(context.Background(), "delete everything")
	require.NoError(t, err)
}

func TestSQLAgent_NoCompletionIsMalformed(t *testing.T) {
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		return "", ai.ErrNoCompletion
	}}
	agent := NewSQLAgent(llm, newTestStore(t), 30)

	_, err := agent.Answer(context.Background(), "how many employees?")
	assert.True(t, IsMalformed(err))
}

func TestSQLAgent_UnwrapsOutputField(t *testing.T) {
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		return `{"output": "Final Answer: 42"}`, nil
	}}
	agent := NewSQLAgent(llm, newTestStore(t), 30)

	answer, err := agent.Answer(context.Background(), "the question")
	require.NoError(t, err)
	assert.Equal(t, "42", answer)
}

func TestSQLAgent_EmptyAnswerIsMalformed(t *testing.T) {
	llm := &fakeRunner{run: func(ctx context.Context, system, prompt string, tools []ai.Tool) (string, error) {
		return "Final Answer:", nil
	}}
	agent := NewSQLAgent(llm, newTestStore(t), 30)

	_, err := agent.Answer(context.Background(), "the question")
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
