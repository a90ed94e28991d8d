package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRerankClient_RequiresProvider(t *testing.T) {
	_, err := NewRerankClient(RerankConfig{})
	if err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestNewRerankClient_GenericRequiresURL(t *testing.T) {
	_, err := NewRerankClient(RerankConfig{Provider: "generic"})
	if err == nil {
		t.Fatal("expected error when generic has no URL")
	}
}

func TestNewRerankClient_UnknownProvider(t *testing.T) {
	_, err := NewRerankClient(RerankConfig{Provider: "notreal", APIURL: "http://localhost"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestRerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Query != "dishwasher not draining" {
			t.Fatalf("unexpected query: %s", req.Query)
		}
		if len(req.Documents) != 2 {
			t.Fatalf("expected 2 documents, got %d", len(req.Documents))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.95},{"index":0,"relevance_score":0.42}]}`))
	}))
	defer srv.Close()

	client, err := NewRerankClient(RerankConfig{
		Provider: "cohere",
		Model:    "rerank-v3.5",
		APIKey:   "test-key",
		APIURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	results, err := client.Rerank(context.Background(), "dishwasher not draining", []string{"doc A", "doc B"})
	if err != nil {
		t.Fatalf("rerank: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Index != 1 || results[0].RelevanceScore != 0.95 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}

func TestRerankOmitsModelWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, present := raw["model"]; present {
			t.Fatal("model field should be omitted when unset")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.75}]}`))
	}))
	defer srv.Close()

	client, err := NewRerankClient(RerankConfig{Provider: "generic", APIURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	results, err := client.Rerank(context.Background(), "query", []string{"a"})
	if err != nil {
		t.Fatalf("rerank: %v", err)
	}
	if len(results) != 1 || results[0].RelevanceScore != 0.75 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRerankEmptyDocuments(t *testing.T) {
	client, err := NewRerankClient(RerankConfig{
		Provider: "cohere",
		Model:    "rerank-v3.5",
		APIKey:   "key",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	results, err := client.Rerank(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("rerank: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results for empty input, got %v", results)
	}
}

func TestRerankServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}))
	defer srv.Close()

	client, err := NewRerankClient(RerankConfig{
		Provider: "jina",
		Model:    "jina-reranker-v2",
		APIURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Rerank(context.Background(), "query", []string{"doc"})
	if err == nil {
		t.Fatal("expected error for server error response")
	}
}
