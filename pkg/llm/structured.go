package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SchemaError reports a completion that did not conform to the requested JSON
// schema: a refusal, a truncated choice, or undecodable content. Callers treat
// it as non-retryable.
type SchemaError struct {
	Description string
	Err         error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: schema violation: %s: %v", e.Description, e.Err)
	}
	return fmt.Sprintf("llm: schema violation: %s", e.Description)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ResponseSchema is a named strict JSON schema for structured outputs.
type ResponseSchema struct {
	Name   string
	Schema map[string]interface{}
}

// StructuredClient makes non-streaming completions whose output must decode
// into the given schema. out receives the decoded JSON.
type StructuredClient interface {
	CompleteStructured(ctx context.Context, messages []Message, schema ResponseSchema, out interface{}) error
}

// NewStructuredClient returns a structured-output client for the configured
// provider. Only openai-compatible endpoints support the json_schema response
// format.
func NewStructuredClient(cfg Config) (StructuredClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg).openai, nil
	default:
		return nil, fmt.Errorf("structured outputs are not supported for provider %q", cfg.Provider)
	}
}

type openAIStructuredRequest struct {
	Model          string               `json:"model"`
	Messages       []Message            `json:"messages"`
	MaxTokens      int                  `json:"max_completion_tokens,omitempty"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *OpenAIProvider) CompleteStructured(ctx context.Context, messages []Message, schema ResponseSchema, out interface{}) error {
	if p.model == "" {
		return errors.New("openai model is required")
	}

	payload, err := json.Marshal(openAIStructuredRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: p.maxTokens,
		ResponseFormat: openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchema{
				Name:   schema.Name,
				Strict: true,
				Schema: schema.Schema,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/chat/completions", bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("openai: create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openai: read response: %w", err)
	}

	var completion openAIChatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return &SchemaError{Description: "completion returned no choices"}
	}

	choice := completion.Choices[0]
	if choice.Message.Refusal != "" {
		return &SchemaError{Description: fmt.Sprintf("model refused: %s", choice.Message.Refusal)}
	}
	if choice.FinishReason == "length" {
		return &SchemaError{Description: "completion truncated before schema was satisfied"}
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return &SchemaError{Description: "completion content is empty"}
	}

	if err := json.Unmarshal([]byte(choice.Message.Content), out); err != nil {
		return &SchemaError{Description: "content does not decode into schema", Err: err}
	}

	return nil
}
