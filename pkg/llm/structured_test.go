package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type scopeDecision struct {
	InScope        bool `json:"in_scope"`
	NeedsRetrieval bool `json:"needs_retrieval"`
}

func scopeSchema() ResponseSchema {
	return ResponseSchema{
		Name: "scope_decision",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"in_scope":        map[string]interface{}{"type": "boolean"},
				"needs_retrieval": map[string]interface{}{"type": "boolean"},
			},
			"required":             []string{"in_scope", "needs_retrieval"},
			"additionalProperties": false,
		},
	}
}

func structuredServer(t *testing.T, handler func(req openAIStructuredRequest) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req openAIStructuredRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat.Type != "json_schema" {
			t.Fatalf("expected json_schema response format, got %q", req.ResponseFormat.Type)
		}
		if !req.ResponseFormat.JSONSchema.Strict {
			t.Fatalf("expected strict schema")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, handler(req))
	}))
}

func TestCompleteStructuredDecodes(t *testing.T) {
	t.Parallel()

	server := structuredServer(t, func(req openAIStructuredRequest) string {
		if req.ResponseFormat.JSONSchema.Name != "scope_decision" {
			t.Fatalf("unexpected schema name %q", req.ResponseFormat.JSONSchema.Name)
		}
		return `{"choices":[{"message":{"content":"{\"in_scope\":true,\"needs_retrieval\":false}"},"finish_reason":"stop"}]}`
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})

	var decision scopeDecision
	if err := provider.CompleteStructured(context.Background(), []Message{{Role: "user", Content: "hi"}}, scopeSchema(), &decision); err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	if !decision.InScope || decision.NeedsRetrieval {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestCompleteStructuredRefusal(t *testing.T) {
	t.Parallel()

	server := structuredServer(t, func(openAIStructuredRequest) string {
		return `{"choices":[{"message":{"content":"","refusal":"I cannot help with that"},"finish_reason":"stop"}]}`
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})

	var decision scopeDecision
	err := provider.CompleteStructured(context.Background(), nil, scopeSchema(), &decision)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestCompleteStructuredMalformedContent(t *testing.T) {
	t.Parallel()

	server := structuredServer(t, func(openAIStructuredRequest) string {
		return `{"choices":[{"message":{"content":"not json at all"},"finish_reason":"stop"}]}`
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})

	var decision scopeDecision
	err := provider.CompleteStructured(context.Background(), nil, scopeSchema(), &decision)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestCompleteStructuredTruncated(t *testing.T) {
	t.Parallel()

	server := structuredServer(t, func(openAIStructuredRequest) string {
		return `{"choices":[{"message":{"content":"{\"in_scope\":"},"finish_reason":"length"}]}`
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})

	var decision scopeDecision
	err := provider.CompleteStructured(context.Background(), nil, scopeSchema(), &decision)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestCompleteStructuredHTTPErrorIsNotSchemaError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid schema"}}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})

	var decision scopeDecision
	err := provider.CompleteStructured(context.Background(), nil, scopeSchema(), &decision)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		t.Fatalf("HTTP errors must not be schema errors: %v", err)
	}
}
