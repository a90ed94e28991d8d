package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chandler/internal/gateway"
	"chandler/internal/metering"
	"chandler/pkg/llm"
)

var batchToolCallSchema = llm.ResponseSchema{
	Name: "batch_tool_call",
	Schema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tool_calls": map[string]interface{}{
				"type":        "array",
				"description": "Tools to call in parallel, empty when none are needed",
				"maxItems":    3,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"tool": map[string]interface{}{
							"type": "string",
							"enum": []string{gateway.ToolSearch, gateway.ToolStructuredQuery},
						},
						"table": map[string]interface{}{
							"type":        "string",
							"description": "Table to search, required for the search tool",
						},
						"query": map[string]interface{}{
							"type":        "string",
							"description": "SQL statement for structured_query, search text for search",
						},
					},
					"required":             []string{"tool", "table", "query"},
					"additionalProperties": false,
				},
			},
			"should_continue": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether more tool calls might be needed after this batch",
			},
		},
		"required":             []string{"tool_calls", "should_continue"},
		"additionalProperties": false,
	},
}

// Planner asks the model which tools to call next given everything retrieved
// so far.
type Planner struct {
	client llm.StructuredClient
}

// NewPlanner returns a planner backed by the given structured client.
func NewPlanner(client llm.StructuredClient) *Planner {
	return &Planner{client: client}
}

// Plan produces the next batch of tool calls for the query. An empty batch
// means the planner believes it has enough information.
func (p *Planner) Plan(ctx context.Context, history *History, query string, results []gateway.ToolResult) (gateway.BatchToolCall, error) {
	var prompt strings.Builder
	prompt.WriteString(renderHistory(history.Messages()))
	prompt.WriteString(fmt.Sprintf("Query: %s\n", query))
	if len(results) > 0 {
		prompt.WriteString("Previous tool results:\n")
		prompt.WriteString(renderToolResults(results))
	}

	messages := []llm.Message{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: prompt.String()},
	}

	var batch gateway.BatchToolCall
	if err := p.client.CompleteStructured(ctx, messages, batchToolCallSchema, &batch); err != nil {
		return gateway.BatchToolCall{}, err
	}
	metering.RecordLLMCall(ctx, "plan")

	if len(batch.Calls) > maxCallsPerBatch {
		batch.Calls = batch.Calls[:maxCallsPerBatch]
	}

	return batch, nil
}

// renderToolResults serializes results as one JSON object per line so the
// model sees each tool, its arguments, and what came back.
func renderToolResults(results []gateway.ToolResult) string {
	var b strings.Builder
	for _, result := range results {
		encoded, err := json.Marshal(result)
		if err != nil {
			continue
		}
		b.Write(encoded)
		b.WriteString("\n")
	}
	return b.String()
}
