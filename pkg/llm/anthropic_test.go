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

func TestAnthropicCompleteLiftsSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}

		var req anthropicRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "be helpful" {
			t.Errorf("system = %q, want lifted system prompt", req.System)
		}
		for _, msg := range req.Messages {
			if msg.Role == "system" {
				t.Error("system message left in messages list")
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		events := []anthropicStreamEvent{
			{Type: "message_start"},
			{Type: "content_block_delta"},
			{Type: "content_block_delta"},
		}
		events[1].Delta.Type = "text_delta"
		events[1].Delta.Text = "Hello "
		events[2].Delta.Type = "text_delta"
		events[2].Delta.Text = "there"
		for _, ev := range events {
			payload, _ := json.Marshal(ev)
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: {\"type\": \"message_stop\"}\n\n")
	}))
	defer server.Close()

	provider := NewAnthropicProvider(Config{
		Model:  "claude-sonnet-4-5-20250929",
		APIKey: "test-key",
		APIURL: server.URL,
	})

	stream, err := provider.Complete(context.Background(), []Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	text, err := CollectText(stream)
	if err != nil {
		t.Fatalf("CollectText error: %v", err)
	}
	if text != "Hello there" {
		t.Fatalf("collected %q", text)
	}
}

func TestAnthropicCompleteRequiresModel(t *testing.T) {
	provider := NewAnthropicProvider(Config{})
	if _, err := provider.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestDecodeAnthropicChunkError(t *testing.T) {
	data := []byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "busy"}}`)
	if _, err := decodeAnthropicChunk(data); err == nil {
		t.Fatal("expected error event to surface as error")
	}
}
