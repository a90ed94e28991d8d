package gateway

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"chandler/pkg/logging"
)

// fakeSession records calls and delegates to a configurable func.
type fakeSession struct {
	mu    sync.Mutex
	calls []map[string]string
	fn    func(ctx context.Context, name string, args map[string]string) (string, error)
}

func (f *fakeSession) CallTool(ctx context.Context, name string, args map[string]string) (string, error) {
	f.mu.Lock()
	recorded := make(map[string]string, len(args)+1)
	recorded["__tool"] = name
	for k, v := range args {
		recorded[k] = v
	}
	f.calls = append(f.calls, recorded)
	f.mu.Unlock()
	return f.fn(ctx, name, args)
}

func (f *fakeSession) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func okSession(text string) *fakeSession {
	return &fakeSession{fn: func(context.Context, string, map[string]string) (string, error) {
		return text, nil
	}}
}

func newTestGateway(structured, search Session) *Gateway {
	return New(Config{
		StructuredSession: structured,
		SearchSession:     search,
		Logger:            logging.NewLogger(),
	})
}

func TestExecuteUnknownTool(t *testing.T) {
	structured := okSession("rows")
	search := okSession("passages")
	g := newTestGateway(structured, search)

	result := g.Execute(context.Background(), ToolCall{Tool: "delete_everything", Query: "x"})
	if result.Result != "Unknown tool: delete_everything" {
		t.Fatalf("unexpected result %q", result.Result)
	}
	if structured.callCount() != 0 || search.callCount() != 0 {
		t.Fatal("unknown tool must not be dispatched")
	}
}

func TestExecuteStructuredQueryRejectsWrites(t *testing.T) {
	structured := okSession("rows")
	g := newTestGateway(structured, okSession(""))

	result := g.Execute(context.Background(), ToolCall{
		Tool:  ToolStructuredQuery,
		Query: "DELETE FROM parts",
	})
	if !strings.HasPrefix(result.Result, "Error:") {
		t.Fatalf("expected rejection text, got %q", result.Result)
	}
	if structured.callCount() != 0 {
		t.Fatal("rejected statement must never reach the backend")
	}
}

func TestExecuteStructuredQueryAppendsLimit(t *testing.T) {
	structured := okSession("rows")
	g := newTestGateway(structured, okSession(""))

	result := g.Execute(context.Background(), ToolCall{
		Tool:  ToolStructuredQuery,
		Query: "SELECT part_price FROM parts WHERE part_id = 'PS11752778'",
	})

	dispatched := structured.calls[0]["query"]
	if dispatched != "SELECT part_price FROM parts WHERE part_id = 'PS11752778' LIMIT 10" {
		t.Fatalf("expected limit rewrite, dispatched %q", dispatched)
	}
	if result.Args["query"] != dispatched {
		t.Fatalf("result args must carry the dispatched query, got %q", result.Args["query"])
	}
	if result.Result != "rows" {
		t.Fatalf("unexpected result %q", result.Result)
	}
}

func TestExecuteStructuredQueryKeepsExistingLimit(t *testing.T) {
	structured := okSession("rows")
	g := newTestGateway(structured, okSession(""))

	g.Execute(context.Background(), ToolCall{
		Tool:  ToolStructuredQuery,
		Query: "SELECT * FROM parts LIMIT 3",
	})

	if dispatched := structured.calls[0]["query"]; dispatched != "SELECT * FROM parts LIMIT 3" {
		t.Fatalf("statement with a limit must pass unmodified, dispatched %q", dispatched)
	}
}

func TestExecuteStructuredQueryTimeout(t *testing.T) {
	slow := &fakeSession{fn: func(ctx context.Context, _ string, _ map[string]string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := New(Config{
		StructuredSession: slow,
		SearchSession:     okSession(""),
		Logger:            logging.NewLogger(),
		QueryTimeout:      20 * time.Millisecond,
	})

	result := g.Execute(context.Background(), ToolCall{Tool: ToolStructuredQuery, Query: "SELECT 1"})
	if result.Result != "Timeout executing query. The database operation took too long to complete." {
		t.Fatalf("unexpected timeout text %q", result.Result)
	}
}

func TestExecuteSearchTimeoutNamesTable(t *testing.T) {
	slow := &fakeSession{fn: func(ctx context.Context, _ string, _ map[string]string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := New(Config{
		StructuredSession: okSession(""),
		SearchSession:     slow,
		Logger:            logging.NewLogger(),
		SearchTimeout:     20 * time.Millisecond,
	})

	result := g.Execute(context.Background(), ToolCall{Tool: ToolSearch, Table: "repairs", Query: "ice maker"})
	if result.Result != "Timeout searching repairs. The search took too long to complete." {
		t.Fatalf("unexpected timeout text %q", result.Result)
	}
}

func TestExecuteSearchTransportErrorBecomesText(t *testing.T) {
	failing := &fakeSession{fn: func(context.Context, string, map[string]string) (string, error) {
		return "", context.Canceled
	}}
	g := newTestGateway(okSession(""), failing)

	result := g.Execute(context.Background(), ToolCall{Tool: ToolSearch, Table: "blogs", Query: "drain hose"})
	if !strings.HasPrefix(result.Result, "Error executing search:") {
		t.Fatalf("expected error text, got %q", result.Result)
	}
}

func TestExecuteBatchOrderCorrespondence(t *testing.T) {
	structured := okSession("row data")
	failing := &fakeSession{fn: func(context.Context, string, map[string]string) (string, error) {
		return "", context.Canceled
	}}
	g := newTestGateway(structured, failing)

	batch := BatchToolCall{Calls: []ToolCall{
		{Tool: ToolSearch, Table: "repairs", Query: "leaking"},
		{Tool: ToolStructuredQuery, Query: "SELECT 1"},
		{Tool: "bogus", Query: "x"},
	}}

	results := g.ExecuteBatch(context.Background(), batch)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Tool != ToolSearch || !strings.HasPrefix(results[0].Result, "Error executing search:") {
		t.Fatalf("result 0 out of order: %+v", results[0])
	}
	if results[1].Tool != ToolStructuredQuery || results[1].Result != "row data" {
		t.Fatalf("result 1 out of order: %+v", results[1])
	}
	if results[2].Result != "Unknown tool: bogus" {
		t.Fatalf("result 2 out of order: %+v", results[2])
	}
}

func TestExecuteBatchFansOutConcurrently(t *testing.T) {
	// Each call blocks until all three have arrived. Sequential dispatch
	// would deadlock, so completion proves concurrency.
	var arrivals sync.WaitGroup
	arrivals.Add(3)
	concurrent := &fakeSession{fn: func(ctx context.Context, _ string, _ map[string]string) (string, error) {
		arrivals.Done()
		done := make(chan struct{})
		go func() {
			arrivals.Wait()
			close(done)
		}()
		select {
		case <-done:
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	g := New(Config{
		StructuredSession: concurrent,
		SearchSession:     concurrent,
		Logger:            logging.NewLogger(),
		QueryTimeout:      2 * time.Second,
		SearchTimeout:     2 * time.Second,
	})

	results := g.ExecuteBatch(context.Background(), BatchToolCall{Calls: []ToolCall{
		{Tool: ToolSearch, Table: "repairs", Query: "a"},
		{Tool: ToolSearch, Table: "blogs", Query: "b"},
		{Tool: ToolStructuredQuery, Query: "SELECT 1"},
	}})

	for i, r := range results {
		if r.Result != "ok" {
			t.Fatalf("call %d did not complete concurrently: %+v", i, r)
		}
	}
}
