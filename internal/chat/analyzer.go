package chat

import (
	"context"
	"fmt"

	"chandler/internal/metering"
	"chandler/pkg/llm"
)

// QueryAnalysis is the scope gate's verdict on an incoming query.
type QueryAnalysis struct {
	InScope        bool `json:"in_scope"`
	NeedsRetrieval bool `json:"needs_retrieval"`
}

var queryAnalysisSchema = llm.ResponseSchema{
	Name: "query_analysis",
	Schema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"in_scope": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the query is about refrigerator or dishwasher parts/repairs",
			},
			"needs_retrieval": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether answering requires retrieving information from the database",
			},
		},
		"required":             []string{"in_scope", "needs_retrieval"},
		"additionalProperties": false,
	},
}

// analyzerHistoryWindow is how many trailing history messages the scope gate
// sees. Older context does not change whether a query is on topic.
const analyzerHistoryWindow = 5

// Analyzer decides whether a query is in scope and whether it needs retrieval.
type Analyzer struct {
	client llm.StructuredClient
}

// NewAnalyzer returns an analyzer backed by the given structured client.
func NewAnalyzer(client llm.StructuredClient) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze classifies the query against the recent conversation history.
func (a *Analyzer) Analyze(ctx context.Context, history *History, query string) (QueryAnalysis, error) {
	prompt := fmt.Sprintf("%sQuery: %s", renderHistory(history.Recent(analyzerHistoryWindow)), query)

	messages := []llm.Message{
		{Role: "system", Content: analyzerSystemPrompt},
		{Role: "user", Content: prompt},
	}

	var analysis QueryAnalysis
	if err := a.client.CompleteStructured(ctx, messages, queryAnalysisSchema, &analysis); err != nil {
		return QueryAnalysis{}, err
	}
	metering.RecordLLMCall(ctx, "analyze")

	return analysis, nil
}
