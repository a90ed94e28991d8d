// Package gateway is the single road from the chat pipeline to the two tool
// backends. Every failure mode resolves to a ToolResult carrying explanatory
// text, so downstream stages always have a value to reason over.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chandler/pkg/logging"
	"chandler/pkg/sqlguard"
)

const (
	// ToolSearch retrieves semantically similar passages from a named table.
	ToolSearch = "search"
	// ToolStructuredQuery executes a read-only SQL statement.
	ToolStructuredQuery = "structured_query"
)

const (
	defaultQueryTimeout  = 15 * time.Second
	defaultSearchTimeout = 30 * time.Second
	defaultRowLimit      = 10
)

// ToolCall names one tool invocation. Table is used only by search.
type ToolCall struct {
	Tool  string `json:"tool"`
	Table string `json:"table,omitempty"`
	Query string `json:"query"`
}

// BatchToolCall is an ordered set of up to three calls dispatched
// concurrently, plus the planner's continue/stop signal.
type BatchToolCall struct {
	Calls          []ToolCall `json:"tool_calls"`
	ShouldContinue bool       `json:"should_continue"`
}

// ToolResult is the uniform outcome shape: the tool, the arguments actually
// dispatched, and opaque result text. Error text sits in Result like any
// other value.
type ToolResult struct {
	Tool   string            `json:"tool"`
	Args   map[string]string `json:"args"`
	Result string            `json:"result"`
}

// Session invokes one named tool on a connected tool server.
type Session interface {
	CallTool(ctx context.Context, name string, args map[string]string) (string, error)
}

// Config wires a Gateway to its two backend sessions.
type Config struct {
	StructuredSession Session
	SearchSession     Session
	Logger            logging.Logger

	// QueryTimeout bounds structured_query dispatch. Defaults to 15s.
	QueryTimeout time.Duration
	// SearchTimeout bounds search dispatch. Defaults to 30s.
	SearchTimeout time.Duration
	// RowLimit caps uncapped row-returning reads. Defaults to 10.
	RowLimit int
}

// Gateway routes tool calls to backend sessions under per-call deadlines.
type Gateway struct {
	structured Session
	search     Session
	logger     logging.Logger

	queryTimeout  time.Duration
	searchTimeout time.Duration
	rowLimit      int
}

// New creates a Gateway, applying defaults for unset timeouts and limits.
func New(cfg Config) *Gateway {
	g := &Gateway{
		structured:    cfg.StructuredSession,
		search:        cfg.SearchSession,
		logger:        cfg.Logger,
		queryTimeout:  cfg.QueryTimeout,
		searchTimeout: cfg.SearchTimeout,
		rowLimit:      cfg.RowLimit,
	}
	if g.queryTimeout <= 0 {
		g.queryTimeout = defaultQueryTimeout
	}
	if g.searchTimeout <= 0 {
		g.searchTimeout = defaultSearchTimeout
	}
	if g.rowLimit <= 0 {
		g.rowLimit = defaultRowLimit
	}
	return g
}

// Execute runs one tool call and always returns a ToolResult.
func (g *Gateway) Execute(ctx context.Context, call ToolCall) ToolResult {
	switch call.Tool {
	case ToolStructuredQuery:
		return g.executeStructuredQuery(ctx, call)
	case ToolSearch:
		return g.executeSearch(ctx, call)
	default:
		toolCallsTotal.WithLabelValues(call.Tool, "unknown_tool").Inc()
		return ToolResult{
			Tool:   call.Tool,
			Args:   map[string]string{"table": call.Table, "query": call.Query},
			Result: fmt.Sprintf("Unknown tool: %s", call.Tool),
		}
	}
}

// ExecuteBatch dispatches every entry concurrently and waits for all of them.
// The result slice is order-correspondent to the input batch.
func (g *Gateway) ExecuteBatch(ctx context.Context, batch BatchToolCall) []ToolResult {
	results := make([]ToolResult, len(batch.Calls))

	var wg sync.WaitGroup
	for i, call := range batch.Calls {
		wg.Add(1)
		go func(i int, call ToolCall) {
			defer wg.Done()
			results[i] = g.Execute(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (g *Gateway) executeStructuredQuery(ctx context.Context, call ToolCall) ToolResult {
	start := time.Now()

	if err := sqlguard.ValidateReadOnly(call.Query); err != nil {
		toolCallsTotal.WithLabelValues(ToolStructuredQuery, "rejected").Inc()
		return ToolResult{
			Tool:   ToolStructuredQuery,
			Args:   map[string]string{"query": call.Query},
			Result: fmt.Sprintf("Error: %v", err),
		}
	}

	query := sqlguard.EnsureLimit(call.Query, g.rowLimit)
	args := map[string]string{"query": query}

	callCtx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	text, err := g.structured.CallTool(callCtx, ToolStructuredQuery, args)
	toolCallDuration.WithLabelValues(ToolStructuredQuery).Observe(time.Since(start).Seconds())

	if err != nil {
		if timedOut(callCtx, err) {
			toolCallsTotal.WithLabelValues(ToolStructuredQuery, "timeout").Inc()
			return ToolResult{
				Tool:   ToolStructuredQuery,
				Args:   args,
				Result: "Timeout executing query. The database operation took too long to complete.",
			}
		}
		toolCallsTotal.WithLabelValues(ToolStructuredQuery, "error").Inc()
		g.logger.WithError(err).WithField("tool", ToolStructuredQuery).Warn("Tool call failed")
		return ToolResult{
			Tool:   ToolStructuredQuery,
			Args:   args,
			Result: fmt.Sprintf("Error executing structured_query: %v", err),
		}
	}

	toolCallsTotal.WithLabelValues(ToolStructuredQuery, "ok").Inc()
	return ToolResult{Tool: ToolStructuredQuery, Args: args, Result: text}
}

func (g *Gateway) executeSearch(ctx context.Context, call ToolCall) ToolResult {
	start := time.Now()
	args := map[string]string{"table": call.Table, "query": call.Query}

	callCtx, cancel := context.WithTimeout(ctx, g.searchTimeout)
	defer cancel()

	text, err := g.search.CallTool(callCtx, ToolSearch, args)
	toolCallDuration.WithLabelValues(ToolSearch).Observe(time.Since(start).Seconds())

	if err != nil {
		if timedOut(callCtx, err) {
			toolCallsTotal.WithLabelValues(ToolSearch, "timeout").Inc()
			return ToolResult{
				Tool:   ToolSearch,
				Args:   args,
				Result: fmt.Sprintf("Timeout searching %s. The search took too long to complete.", call.Table),
			}
		}
		toolCallsTotal.WithLabelValues(ToolSearch, "error").Inc()
		g.logger.WithError(err).WithField("tool", ToolSearch).Warn("Tool call failed")
		return ToolResult{
			Tool:   ToolSearch,
			Args:   args,
			Result: fmt.Sprintf("Error executing search: %v", err),
		}
	}

	toolCallsTotal.WithLabelValues(ToolSearch, "ok").Inc()
	return ToolResult{Tool: ToolSearch, Args: args, Result: text}
}

// timedOut distinguishes this call's deadline from cancellation of the whole
// turn, which must surface as a generic error instead.
func timedOut(callCtx context.Context, err error) bool {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
