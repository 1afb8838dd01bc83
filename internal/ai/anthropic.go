package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
	MaxTurns    int
}

// Client implements Runner on top of Anthropic's Messages API.
type Client struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	maxTurns    int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 12
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(cfg.APIKey),
		anthropicopt.WithMaxRetries(cfg.MaxRetries),
	)
	return &Client{
		client:      &cl,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxTurns:    cfg.MaxTurns,
	}
}

// Run sends the prompt and loops over tool invocations until the model stops
// asking for tools or the turn limit is reached.
func (c *Client) Run(ctx context.Context, system, prompt string, tools []Tool) (string, error) {
	toolParams := make([]anthropic.ToolUnionParam, 0, len(tools))
	byName := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
		toolParams = append(toolParams, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.InputSchema,
				},
			},
		})
	}

	history := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	var lastText string
	for turn := 0; turn < c.maxTurns; turn++ {
		msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.model),
			MaxTokens:   int64(c.maxTokens),
			Temperature: anthropic.Float(c.temperature),
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: history,
			Tools:    toolParams,
		})
		if err != nil {
			return "", fmt.Errorf("anthropic message failed: %w", err)
		}

		var (
			text      strings.Builder
			toolCalls []anthropic.ToolUseBlock
		)
		for _, block := range msg.Content {
			switch b := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(b.Text)
			case anthropic.ToolUseBlock:
				toolCalls = append(toolCalls, b)
			}
		}
		if text.Len() > 0 {
			lastText = text.String()
		}

		if len(toolCalls) == 0 {
			if strings.TrimSpace(lastText) == "" {
				return "", ErrNoCompletion
			}
			return lastText, nil
		}

		history = append(history, msg.ToParam())

		results := make([]anthropic.ContentBlockParamUnion, 0, len(toolCalls))
		for _, call := range toolCalls {
			tool, ok := byName[call.Name]
			if !ok {
				results = append(results, anthropic.NewToolResultBlock(call.ID, "unknown tool: "+call.Name, true))
				continue
			}
			out, runErr := tool.Run(ctx, call.Input)
			if runErr != nil {
				log.Printf("tool %s failed: %v", call.Name, runErr)
				results = append(results, anthropic.NewToolResultBlock(call.ID, runErr.Error(), true))
				continue
			}
			results = append(results, anthropic.NewToolResultBlock(call.ID, out, false))
		}
		history = append(history, anthropic.NewUserMessage(results...))
	}

	if strings.TrimSpace(lastText) == "" {
		return "", ErrNoCompletion
	}
	return lastText, nil
}
