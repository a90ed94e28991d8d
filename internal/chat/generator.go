package chat

import (
	"context"
	"fmt"
	"strings"

	"chandler/internal/gateway"
	"chandler/internal/metering"
	"chandler/pkg/llm"
)

// Generator drafts the assistant's answer from the retrieved data. The
// completion sees only the query and the context block; the conversation
// history gets a synthetic context message so later turns can build on what
// was retrieved.
type Generator struct {
	provider llm.Provider
}

// NewGenerator returns a generator backed by the given provider.
func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate produces an answer for the query over the accumulated results and
// records the context block in the history.
func (g *Generator) Generate(ctx context.Context, history *History, query string, results []gateway.ToolResult) (string, error) {
	contextBlock := renderContext(results)
	history.Append(RoleUser, contextPrefix+contextBlock)

	messages := []llm.Message{
		{Role: "system", Content: generatorSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Query: %s\nContext: %s", query, contextBlock)},
	}

	stream, err := g.provider.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	answer, err := llm.CollectText(stream)
	if err != nil {
		return "", err
	}
	metering.RecordLLMCall(ctx, "generate")

	return answer, nil
}

// noDataText marks an empty retrieval in the generation and validation
// prompts, so the model knows retrieval ran and came back empty.
const noDataText = "No data retrieved"

// renderContext serializes tool results for the generation prompt. Validation
// feedback entries become readable revision instructions instead of JSON.
func renderContext(results []gateway.ToolResult) string {
	var b strings.Builder
	for _, result := range results {
		if IsFeedback(result) {
			b.WriteString("Previous response: ")
			b.WriteString(result.Args["previous_response"])
			b.WriteString("\nPrevious response feedback: ")
			b.WriteString(result.Result)
			b.WriteString("\n")
			continue
		}
		b.WriteString(renderToolResults([]gateway.ToolResult{result}))
	}
	if b.Len() == 0 {
		return noDataText
	}
	return b.String()
}
