package chat

import (
	"context"
	"fmt"

	"chandler/internal/gateway"
	"chandler/internal/metering"
	"chandler/pkg/llm"
)

// Validation is the validator's verdict on a drafted answer. Hallucination
// is inverted relative to the other two: true flags a problem.
type Validation struct {
	IsAppropriate bool   `json:"is_appropriate"`
	StaysInScope  bool   `json:"stays_in_scope"`
	Hallucination bool   `json:"hallucination"`
	Feedback      string `json:"feedback"`
}

// Passed reports whether all three criteria hold.
func (v Validation) Passed() bool {
	return v.IsAppropriate && v.StaysInScope && !v.Hallucination
}

var validationSchema = llm.ResponseSchema{
	Name: "response_validation",
	Schema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"is_appropriate": map[string]interface{}{
				"type":        "boolean",
				"description": "The response maintains a professional, parts-focused tone",
			},
			"stays_in_scope": map[string]interface{}{
				"type":        "boolean",
				"description": "The response stays within refrigerator and dishwasher parts/repairs",
			},
			"hallucination": map[string]interface{}{
				"type":        "boolean",
				"description": "The response hallucinates or conflicts with the retrieved data",
			},
			"feedback": map[string]interface{}{
				"type":        "string",
				"description": "How to fix the response when a criterion fails, empty otherwise",
			},
		},
		"required":             []string{"is_appropriate", "stays_in_scope", "hallucination", "feedback"},
		"additionalProperties": false,
	},
}

// feedbackTool names the synthetic result that carries validator feedback
// back into the next generation attempt.
const feedbackTool = "validation_feedback"

// FeedbackResult wraps a rejected answer and the validator's feedback in the
// uniform tool result shape.
func FeedbackResult(previousResponse, feedback string) gateway.ToolResult {
	return gateway.ToolResult{
		Tool:   feedbackTool,
		Args:   map[string]string{"previous_response": previousResponse},
		Result: feedback,
	}
}

// IsFeedback reports whether a result is validator feedback rather than a
// real tool outcome.
func IsFeedback(result gateway.ToolResult) bool {
	return result.Tool == feedbackTool
}

// Validator checks drafted answers against the retrieved data.
type Validator struct {
	client llm.StructuredClient
}

// NewValidator returns a validator backed by the given structured client.
func NewValidator(client llm.StructuredClient) *Validator {
	return &Validator{client: client}
}

// Validate scores the answer against the query and the retrieved results.
func (v *Validator) Validate(ctx context.Context, query, answer string, results []gateway.ToolResult) (Validation, error) {
	retrieved := renderToolResults(results)
	if retrieved == "" {
		retrieved = noDataText + "\n"
	}
	prompt := fmt.Sprintf("Query: %s\nRetrieved data:\n%sResponse: %s", query, retrieved, answer)

	messages := []llm.Message{
		{Role: "system", Content: validatorSystemPrompt},
		{Role: "user", Content: prompt},
	}

	var verdict Validation
	if err := v.client.CompleteStructured(ctx, messages, validationSchema, &verdict); err != nil {
		return Validation{}, err
	}
	metering.RecordLLMCall(ctx, "validate")

	return verdict, nil
}
