package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolInfo describes a tool advertised by a remote MCP server.
type ToolInfo struct {
	Name        string
	Description string
}

// Client is a connected MCP session against one tool server.
type Client struct {
	session *sdk.ClientSession
	logger  *slog.Logger
}

// Connect opens a streamable HTTP session against the given endpoint.
func Connect(ctx context.Context, endpoint string, logger *slog.Logger) (*Client, error) {
	return connect(ctx, &sdk.StreamableClientTransport{Endpoint: endpoint}, logger)
}

// ConnectTransport opens a session over an arbitrary transport. Tests use
// this with in-memory transports.
func ConnectTransport(ctx context.Context, transport sdk.Transport, logger *slog.Logger) (*Client, error) {
	return connect(ctx, transport, logger)
}

func connect(ctx context.Context, transport sdk.Transport, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := sdk.NewClient(&sdk.Implementation{
		Name:    "deskmate-agent",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to mcp server: %w", err)
	}

	return &Client{session: session, logger: logger}, nil
}

// Tools lists the tools the server advertises.
func (c *Client) Tools(ctx context.Context) ([]ToolInfo, error) {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	infos := make([]ToolInfo, 0, len(res.Tools))
	for _, t := range res.Tools {
		infos = append(infos, ToolInfo{Name: t.Name, Description: t.Description})
	}
	return infos, nil
}

// CallText invokes a tool with a single query argument and returns the
// concatenated text content. Tool-level failures arrive as ordinary text,
// so only transport faults surface as errors.
func (c *Client) CallText(ctx context.Context, name, query string) (string, error) {
	c.logger.Debug("calling remote tool", "tool", name, "query", query)

	res, err := c.session.CallTool(ctx, &sdk.CallToolParams{
		Name:      name,
		Arguments: map[string]any{"query": query},
	})
	if err != nil {
		return "", fmt.Errorf("calling tool %s: %w", name, err)
	}

	var sb strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(*sdk.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// Close terminates the session.
func (c *Client) Close() error {
	return c.session.Close()
}
