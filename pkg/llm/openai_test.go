package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req openAIRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected streaming request")
		}
		if req.Model != "gpt-4o-2024-08-06" {
			t.Errorf("model = %q", req.Model)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, token := range []string{"The ", "part ", "costs ", "$36.08."} {
			payload, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"delta": map[string]string{"content": token}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{
		Model:  "gpt-4o-2024-08-06",
		APIKey: "test-key",
		APIURL: server.URL,
	})

	stream, err := provider.Complete(context.Background(), []Message{
		{Role: "user", Content: "price of PS11752778?"},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	text, err := CollectText(stream)
	if err != nil {
		t.Fatalf("CollectText error: %v", err)
	}
	if text != "The part costs $36.08." {
		t.Fatalf("collected %q", text)
	}
}

func TestOpenAICompleteRequiresModel(t *testing.T) {
	provider := NewOpenAIProvider(Config{})
	if _, err := provider.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestOpenAICompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "model overloaded"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{Model: "gpt-4o-2024-08-06", APIURL: server.URL})
	if _, err := provider.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error for 400 status")
	}
}
