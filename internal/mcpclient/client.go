package mcpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"chandler/pkg/logging"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolClient holds a long-lived MCP session to one tool server. The pipeline
// reuses it across turns; a broken session is re-established on the next call.
type ToolClient struct {
	client *mcp.Client
	logger logging.Logger

	endpoint string
	token    string

	mu      sync.RWMutex
	session *mcp.ClientSession
	tools   map[string]string // name -> description
}

// Config configures a tool server connection.
type Config struct {
	// Endpoint is the base URL of the tool server's MCP mount.
	Endpoint string
	// ServiceToken authenticates the session when the server requires one.
	ServiceToken string
	Logger       logging.Logger
}

// New connects to a tool server and discovers its tools.
func New(ctx context.Context, cfg Config) (*ToolClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("mcpclient: Endpoint is required")
	}

	impl := &mcp.Implementation{
		Name:    "chandler",
		Version: "1.0.0",
	}

	tc := &ToolClient{
		client:   mcp.NewClient(impl, nil),
		logger:   cfg.Logger,
		endpoint: cfg.Endpoint,
		token:    cfg.ServiceToken,
	}

	if err := tc.connect(ctx); err != nil {
		return nil, err
	}

	return tc, nil
}

// HasTool reports whether the server advertises the named tool.
func (tc *ToolClient) HasTool(name string) bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	_, ok := tc.tools[name]
	return ok
}

// CallTool invokes a tool and returns its joined text content. A result
// marked as an error becomes an error carrying the server's text. One
// reconnect is attempted when the session itself fails, so a restarted tool
// server does not poison every later turn.
func (tc *ToolClient) CallTool(ctx context.Context, name string, args map[string]string) (string, error) {
	arguments := make(map[string]any, len(args))
	for k, v := range args {
		arguments[k] = v
	}

	result, err := tc.currentSession().CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil && ctx.Err() == nil {
		if rerr := tc.reconnect(ctx); rerr != nil {
			return "", fmt.Errorf("mcpclient: call %s: %w", name, err)
		}
		result, err = tc.currentSession().CallTool(ctx, &mcp.CallToolParams{
			Name:      name,
			Arguments: arguments,
		})
	}
	if err != nil {
		return "", fmt.Errorf("mcpclient: call %s: %w", name, err)
	}

	if result.IsError {
		text := extractTextContent(result)
		if text != "" {
			return "", fmt.Errorf("mcpclient: tool %s returned error: %s", name, text)
		}
		return "", fmt.Errorf("mcpclient: tool %s returned error", name)
	}

	return extractTextContent(result), nil
}

// Close shuts down the MCP session.
func (tc *ToolClient) Close() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.session != nil {
		return tc.session.Close()
	}
	return nil
}

func (tc *ToolClient) currentSession() *mcp.ClientSession {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.session
}

func (tc *ToolClient) connect(ctx context.Context) error {
	transport := &mcp.StreamableClientTransport{
		Endpoint: tc.endpoint,
		HTTPClient: &http.Client{
			Transport: &authTransport{
				base:         http.DefaultTransport,
				serviceToken: tc.token,
			},
		},
	}

	session, err := tc.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("mcpclient: connect to %s: %w", tc.endpoint, err)
	}

	listing, err := session.ListTools(ctx, nil)
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("mcpclient: discover tools: %w", err)
	}

	tools := make(map[string]string, len(listing.Tools))
	for _, t := range listing.Tools {
		tools[t.Name] = t.Description
	}

	tc.mu.Lock()
	tc.session = session
	tc.tools = tools
	tc.mu.Unlock()

	if tc.logger != nil {
		tc.logger.WithFields(logging.Fields{
			"endpoint": tc.endpoint,
			"count":    len(tools),
		}).Info("Discovered MCP tools")
	}
	return nil
}

func (tc *ToolClient) reconnect(ctx context.Context) error {
	tc.mu.Lock()
	if tc.session != nil {
		_ = tc.session.Close()
		tc.session = nil
	}
	tc.mu.Unlock()

	if tc.logger != nil {
		tc.logger.WithField("endpoint", tc.endpoint).Warn("MCP session lost, reconnecting")
	}
	return tc.connect(ctx)
}

// extractTextContent joins all TextContent entries from a CallToolResult.
func extractTextContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// authTransport injects the service token into each HTTP request.
type authTransport struct {
	base         http.RoundTripper
	serviceToken string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.serviceToken)
	}

	return t.base.RoundTrip(req)
}
