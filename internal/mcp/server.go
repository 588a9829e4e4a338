// Package mcp exposes the question-answering tools over the Model Context
// Protocol using streamable HTTP transport, and provides the matching
// client used by the agent side.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Answerer is a tool that turns a question into a text answer. All
// implementations fold failures into the returned string, so the MCP
// layer never needs to translate tool errors.
type Answerer interface {
	Answer(ctx context.Context, query string) string
}

// QueryInput is the single-argument schema shared by both tools.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the natural language question to answer"`
}

// Config carries server identity and logging.
type Config struct {
	Name    string
	Version string
	Logger  *slog.Logger
}

// Server wraps an MCP server with tool registration helpers.
type Server struct {
	srv    *sdk.Server
	logger *slog.Logger
}

// NewServer creates an MCP server with the given identity.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: sdk.NewServer(&sdk.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		logger: logger,
	}
}

// RegisterSQLTool registers the company database tool.
func (s *Server) RegisterSQLTool(tool Answerer) error {
	return s.register("answer_database_question",
		"Answers a question by dynamically generating and executing an SQL query on the company database. The database contains tables for employees, products, and sales.",
		tool)
}

// RegisterRAGTool registers the PDF document tool.
func (s *Server) RegisterRAGTool(tool Answerer) error {
	return s.register("answer_pdf_question",
		"Answers a question by searching a technical PDF document.",
		tool)
}

func (s *Server) register(name, description string, tool Answerer) error {
	schema, err := jsonschema.For[QueryInput](nil)
	if err != nil {
		return fmt.Errorf("building schema for %s: %w", name, err)
	}

	logger := s.logger
	sdk.AddTool(s.srv, &sdk.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, func(ctx context.Context, req *sdk.CallToolRequest, in QueryInput) (*sdk.CallToolResult, any, error) {
		logger.Info("tool call", "tool", name, "query", in.Query)
		answer := tool.Answer(ctx, in.Query)
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: answer}},
		}, nil, nil
	})
	return nil
}

// Run serves a single MCP session over the given transport. Tests use
// this with in-memory transports.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.srv.Run(ctx, transport)
}

// Handler returns the streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.srv
	}, nil)
}

// ListenAndServe serves MCP over HTTP at the given address and path until
// ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler())

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening", "addr", addr, "path", path)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down mcp server: %w", err)
	}
	s.logger.Info("mcp server stopped", "addr", addr)
	return nil
}
