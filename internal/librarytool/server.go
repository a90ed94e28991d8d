// Package librarytool exposes semantic search over the repairs and blogs
// tables as the search MCP tool.
package librarytool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"chandler/internal/library"
	"chandler/pkg/llm"
	"chandler/pkg/logging"
	"chandler/pkg/version"
)

const defaultSearchLimit = 5

// NoResultsText is returned when no document survives retrieval and grading.
const NoResultsText = "No relevant documents found."

// Searcher finds the nearest passages in a named table.
type Searcher interface {
	Search(ctx context.Context, table string, embedding []float32, limit int) ([]library.Document, error)
}

// Config wires the tool server to its search dependencies.
type Config struct {
	Store       Searcher
	Embedder    llm.EmbeddingClient
	Grader      *library.Grader
	Logger      logging.Logger
	SearchLimit int
}

// NewServer creates an MCP server exposing the search tool.
func NewServer(cfg Config) *mcp.Server {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "almanac",
		Version: version.Version,
	}, nil)

	registerSearch(srv, cfg)

	return srv
}

type searchInput struct {
	Table string `json:"table" jsonschema:"required" jsonschema_description:"Table to search: repairs or blogs"`
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Descriptive search text, never part or model numbers"`
}

func registerSearch(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv,
		&mcp.Tool{
			Name:        "search",
			Description: "Semantic search over the repairs and blogs tables for symptoms, fixes, and troubleshooting guides.",
		},
		func(ctx context.Context, _ *mcp.CallToolRequest, args searchInput) (*mcp.CallToolResult, any, error) {
			return handleSearch(ctx, args, cfg)
		},
	)
}

func handleSearch(ctx context.Context, args searchInput, cfg Config) (*mcp.CallToolResult, any, error) {
	table := strings.ToLower(strings.TrimSpace(args.Table))
	if table != library.TableRepairs && table != library.TableBlogs {
		searchesTotal.WithLabelValues(table, "rejected").Inc()
		return toolError(fmt.Sprintf("unknown table %q, expected repairs or blogs", args.Table))
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		searchesTotal.WithLabelValues(table, "rejected").Inc()
		return toolError("query is required")
	}

	start := time.Now()
	embeddings, err := cfg.Embedder.Embed(ctx, []string{query})
	if err != nil {
		searchesTotal.WithLabelValues(table, "error").Inc()
		if cfg.Logger != nil {
			cfg.Logger.WithError(err).WithField("query", query).Warn("Query embedding failed")
		}
		return toolError(fmt.Sprintf("embedding failed: %v", err))
	}

	documents, err := cfg.Store.Search(ctx, table, embeddings[0], cfg.SearchLimit)
	if err != nil {
		searchesTotal.WithLabelValues(table, "error").Inc()
		if cfg.Logger != nil {
			cfg.Logger.WithError(err).WithField("table", table).Warn("Semantic search failed")
		}
		return toolError(fmt.Sprintf("search failed: %v", err))
	}

	documents = cfg.Grader.Filter(ctx, query, documents)

	searchesTotal.WithLabelValues(table, "ok").Inc()
	searchDuration.Observe(time.Since(start).Seconds())
	searchResultsCount.Observe(float64(len(documents)))
	if cfg.Logger != nil {
		cfg.Logger.WithFields(logging.Fields{
			"table":   table,
			"query":   query,
			"results": len(documents),
		}).Debug("Semantic search served")
	}

	if len(documents) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: NoResultsText}},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: renderDocuments(documents)}},
	}, nil, nil
}

// renderDocuments formats passages for the planner and generator, one block
// per document with its source URL when known.
func renderDocuments(documents []library.Document) string {
	var b strings.Builder
	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if doc.Title != "" {
			b.WriteString(doc.Title)
			b.WriteString("\n")
		}
		b.WriteString(doc.Text)
		if doc.URL != "" {
			b.WriteString("\nSource: ")
			b.WriteString(doc.URL)
		}
	}
	return b.String()
}

func toolError(message string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}, nil, nil
}
