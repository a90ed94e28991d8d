// Package catalogtool exposes the parts catalog as the structured_query MCP
// tool. Queries arrive pre-guarded by the assistant's gateway, but the guard
// runs again here since this server is its own trust boundary.
package catalogtool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"chandler/pkg/logging"
	"chandler/pkg/sqlguard"
	"chandler/pkg/version"
)

const defaultRowLimit = 10

// Config wires the tool server to its database.
type Config struct {
	DB       *sql.DB
	Logger   logging.Logger
	RowLimit int
}

// NewServer creates an MCP server exposing the structured_query tool.
func NewServer(cfg Config) *mcp.Server {
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = defaultRowLimit
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "manifest",
		Version: version.Version,
	}, nil)

	registerStructuredQuery(srv, cfg)

	return srv
}

type structuredQueryInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Read-only SQL statement to run against the catalog"`
}

func registerStructuredQuery(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv,
		&mcp.Tool{
			Name:        "structured_query",
			Description: "Execute a read-only SQL query against the parts, repairs, and blogs tables.",
		},
		func(ctx context.Context, _ *mcp.CallToolRequest, args structuredQueryInput) (*mcp.CallToolResult, any, error) {
			return handleStructuredQuery(ctx, args, cfg)
		},
	)
}

func handleStructuredQuery(ctx context.Context, args structuredQueryInput, cfg Config) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return toolError("query is required")
	}
	if err := sqlguard.ValidateReadOnly(query); err != nil {
		queriesTotal.WithLabelValues("rejected").Inc()
		return toolError(fmt.Sprintf("query rejected: %v", err))
	}
	query = sqlguard.EnsureLimit(query, cfg.RowLimit)

	start := time.Now()
	rows, err := cfg.DB.QueryContext(ctx, query)
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		if cfg.Logger != nil {
			cfg.Logger.WithError(err).WithField("query", query).Warn("Catalog query failed")
		}
		return toolError(fmt.Sprintf("query failed: %v", err))
	}
	defer rows.Close()

	text, count, err := renderRows(rows)
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		return toolError(fmt.Sprintf("query failed: %v", err))
	}

	queriesTotal.WithLabelValues("ok").Inc()
	queryDuration.Observe(time.Since(start).Seconds())
	if cfg.Logger != nil {
		cfg.Logger.WithFields(logging.Fields{
			"query": query,
			"rows":  count,
		}).Debug("Catalog query served")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// renderRows formats a result set as aligned columns, one row per line, so
// the model reads it like a table.
func renderRows(rows *sql.Rows) (string, int, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", 0, fmt.Errorf("read columns: %w", err)
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}

	var records [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return "", 0, fmt.Errorf("scan row: %w", err)
		}

		record := make([]string, len(columns))
		for i, value := range raw {
			cell := "NULL"
			if value.Valid {
				cell = strings.ReplaceAll(value.String, "\n", " ")
			}
			record[i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return "", 0, fmt.Errorf("iterate rows: %w", err)
	}

	if len(records) == 0 {
		return "No results found.", 0, nil
	}

	var b strings.Builder
	writeAligned(&b, columns, widths)
	for _, record := range records {
		writeAligned(&b, record, widths)
	}
	return strings.TrimRight(b.String(), "\n"), len(records), nil
}

func writeAligned(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(cell)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
		}
	}
	b.WriteString("\n")
}

func toolError(message string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}, nil, nil
}
