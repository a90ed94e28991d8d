// Package config loads per-service environment configuration.
package config

import (
	"strings"
	"time"

	"chandler/pkg/config"
	"chandler/pkg/llm"
)

// ChandlerConfig configures the chat assistant service.
type ChandlerConfig struct {
	Port          string
	DatabaseURL   string
	LLM           llm.Config
	ManifestURL   string
	AlmanacURL    string
	ServiceToken  string
	FlushInterval time.Duration
}

// LoadChandler reads the assistant configuration from the environment.
func LoadChandler() ChandlerConfig {
	return ChandlerConfig{
		Port:          config.GetEnv("PORT", "8080"),
		DatabaseURL:   config.GetEnv("DATABASE_URL", ""),
		LLM:           loadLLM(),
		ManifestURL:   config.GetEnv("MANIFEST_URL", "http://localhost:8081/mcp"),
		AlmanacURL:    config.GetEnv("ALMANAC_URL", "http://localhost:8082/mcp"),
		ServiceToken:  config.GetEnv("SERVICE_TOKEN", ""),
		FlushInterval: config.GetEnvDuration("USAGE_FLUSH_INTERVAL", time.Minute),
	}
}

// ManifestConfig configures the structured query tool server.
type ManifestConfig struct {
	Port         string
	DatabaseURL  string
	ServiceToken string
	RowLimit     int
}

// LoadManifest reads the manifest configuration from the environment.
func LoadManifest() ManifestConfig {
	return ManifestConfig{
		Port:         config.GetEnv("PORT", "8081"),
		DatabaseURL:  config.GetEnv("DATABASE_URL", ""),
		ServiceToken: config.GetEnv("SERVICE_TOKEN", ""),
		RowLimit:     config.GetEnvInt("ROW_LIMIT", 10),
	}
}

// AlmanacConfig configures the semantic search tool server.
type AlmanacConfig struct {
	Port         string
	DatabaseURL  string
	Embedding    llm.Config
	Rerank       llm.RerankConfig
	SearchLimit  int
	ServiceToken string
}

// LoadAlmanac reads the almanac configuration from the environment.
func LoadAlmanac() AlmanacConfig {
	return AlmanacConfig{
		Port:        config.GetEnv("PORT", "8082"),
		DatabaseURL: config.GetEnv("DATABASE_URL", ""),
		Embedding:   llm.LoadEmbeddingConfig(),
		Rerank: llm.RerankConfig{
			Provider: config.GetEnv("RERANK_PROVIDER", ""),
			Model:    config.GetEnv("RERANK_MODEL", ""),
			APIKey:   config.GetEnv("RERANK_API_KEY", ""),
			APIURL:   config.GetEnv("RERANK_API_URL", ""),
		},
		SearchLimit:  config.GetEnvInt("SEARCH_LIMIT", 5),
		ServiceToken: config.GetEnv("SERVICE_TOKEN", ""),
	}
}

// TrawlerConfig configures the catalog scraper.
type TrawlerConfig struct {
	DatabaseURL   string
	Embedding     llm.Config
	BaseURL       string
	Brands        []string
	Concurrency   int
	MaxTabs       int
	RenderTimeout time.Duration
	BrowserURL    string
}

// LoadTrawler reads the trawler configuration from the environment.
func LoadTrawler() TrawlerConfig {
	return TrawlerConfig{
		DatabaseURL:   config.GetEnv("DATABASE_URL", ""),
		Embedding:     llm.LoadEmbeddingConfig(),
		BaseURL:       config.GetEnv("BASE_URL", "https://www.partselect.com"),
		Brands:        splitList(config.GetEnv("BRANDS", "")),
		Concurrency:   config.GetEnvInt("CONCURRENCY", 4),
		MaxTabs:       config.GetEnvInt("MAX_TABS", 4),
		RenderTimeout: config.GetEnvDuration("RENDER_TIMEOUT", 45*time.Second),
		BrowserURL:    config.GetEnv("BROWSER_URL", ""),
	}
}

func loadLLM() llm.Config {
	cfg := llm.LoadConfig()
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-2024-08-06"
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
