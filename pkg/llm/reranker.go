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
	"time"
)

// RerankClient scores (query, document) pairs for relevance.
type RerankClient interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error)
}

// RerankResult holds the relevance score for a single document.
type RerankResult struct {
	Index          int
	RelevanceScore float64
}

// RerankConfig configures a reranking provider.
type RerankConfig struct {
	Provider string // "cohere", "jina", or "generic"
	Model    string
	APIKey   string
	APIURL   string
}

// Cohere, Jina, and the common self-hosted servers all speak the same
// /rerank wire shape, so a single request path covers every provider and
// only the endpoint default differs.
type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

type rerankProvider struct {
	client *http.Client
	model  string
	apiKey string
	apiURL string
}

// NewRerankClient creates a reranking client for the given provider.
func NewRerankClient(cfg RerankConfig) (RerankClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		return nil, errors.New("reranker provider is required")
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	switch provider {
	case "cohere":
		if apiURL == "" {
			apiURL = "https://api.cohere.com/v2"
		}
	case "jina":
		if apiURL == "" {
			apiURL = "https://api.jina.ai/v1"
		}
	case "generic":
		if apiURL == "" {
			return nil, errors.New("RERANK_API_URL is required for generic provider")
		}
	default:
		return nil, fmt.Errorf("unknown reranker provider %q", provider)
	}

	return &rerankProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		apiURL: apiURL,
	}, nil
}

func (p *rerankProvider) Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     p.model,
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank: marshal: %w", err)
	}

	body, err := p.post(ctx, p.apiURL+"/rerank", payload)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	var resp rerankResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("rerank: decode: %w", err)
	}

	results := make([]RerankResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = RerankResult{Index: r.Index, RelevanceScore: r.RelevanceScore}
	}
	return results, nil
}

func (p *rerankProvider) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}
