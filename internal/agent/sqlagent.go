package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"datacopilot/internal/ai"
	"datacopilot/internal/dataset"
)

const sqlSystemTemplate = `You are an agent designed to interact with a SQL database.

## Database Schema:
%s

## Instructions:
- Given an input question, create a syntactically correct SQL query, run it with the execute_query tool, look at the results, and return the answer.
- Unless the user specifies a number of examples to obtain, ALWAYS limit your query to at most %d results.
- You can order the results by a relevant column to return the most interesting examples.
- Never query for all the columns from the table, only ask for the relevant columns given the question.
- Ensure calculations consider distinct rows where applicable.
- You MUST double check your query before executing it. If a query returns an error, rewrite it and try again.
- DO NOT make up an answer or use prior knowledge, ONLY use the results of the queries you have run.
- If the user input is not a valid question about the data, respond with: Final Answer: Please ask a specific database-related question.
- End your reply with the answer after a "Final Answer:" marker.`

// SQLAgent is the query router: it grounds a natural-language question in the
// relational mirror through a single execute_query tool and returns a
// best-effort textual answer.
type SQLAgent struct {
	llm   ai.Runner
	store *dataset.Store
	topK  int
}

func NewSQLAgent(llm ai.Runner, store *dataset.Store, topK int) *SQLAgent {
	if topK <= 0 {
		topK = 30
	}
	return &SQLAgent{llm: llm, store: store, topK: topK}
}

func (a *SQLAgent) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	system := fmt.Sprintf(sqlSystemTemplate, a.store.SchemaDescription(), a.topK)
	out, err := a.llm.Run(ctx, system, question, []ai.Tool{a.queryTool()})
	if err != nil {
		if isNoCompletion(err) {
			return "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		return "", err
	}

	answer := ExtractFinalAnswer(CoerceOutput(out))
	if answer == "" {
		return "", ErrMalformedOutput
	}
	return answer, nil
}

func (a *SQLAgent) queryTool() ai.Tool {
	return ai.Tool{
		Name:        "execute_query",
		Description: "Execute a read-only SQL SELECT statement against the dataset and return the resulting rows as text.",
		InputSchema: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The SQL SELECT statement to run.",
			},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid query input: %w", err)
			}
			if strings.TrimSpace(args.Query) == "" {
				return "", fmt.Errorf("query must not be empty")
			}
			return a.store.Query(ctx, args.Query, a.topK)
		},
	}
}

func isNoCompletion(err error) bool {
	return errors.Is(err, ai.ErrNoCompletion)
}
