package llm

import (
	"context"
	"strings"
)

// OllamaProvider speaks Ollama's OpenAI-compatible endpoint.
type OllamaProvider struct {
	openai *OpenAIProvider
}

func NewOllamaProvider(cfg Config) *OllamaProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "http://localhost:11434/v1"
	}
	cfg.APIURL = apiURL
	return &OllamaProvider{openai: NewOpenAIProvider(cfg)}
}

func (p *OllamaProvider) Complete(ctx context.Context, messages []Message) (Stream, error) {
	return p.openai.Complete(ctx, messages)
}
