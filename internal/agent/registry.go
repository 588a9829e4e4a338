package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/deskmate-ai/deskmate/internal/mcp"
)

// toolRenames maps MCP tool names to the agent-facing capability names
// the model reasons with.
var toolRenames = map[string]string{
	"answer_database_question": "CompanyDatabaseTool",
	"answer_pdf_question":      "PDFDocumentSearchTool",
}

// QueryInput is the argument schema every capability accepts.
type QueryInput struct {
	Query string `json:"query" jsonschema_description:"The natural language question to pass to the tool"`
}

// Capability is one callable tool as the agent sees it. Call returns the
// tool's text answer; only transport faults surface as errors.
type Capability struct {
	Name        string
	Description string
	Call        func(ctx context.Context, query string) (string, error)
}

// FromMCP discovers a server's tools and wraps each as a capability,
// renaming per toolRenames. The wrapped call invokes the tool under its
// original wire name.
func FromMCP(ctx context.Context, client *mcp.Client) ([]Capability, error) {
	tools, err := client.Tools(ctx)
	if err != nil {
		return nil, err
	}

	caps := make([]Capability, 0, len(tools))
	for _, t := range tools {
		wireName := t.Name
		name := wireName
		if renamed, ok := toolRenames[wireName]; ok {
			name = renamed
		}
		caps = append(caps, Capability{
			Name:        name,
			Description: t.Description,
			Call: func(ctx context.Context, query string) (string, error) {
				return client.CallText(ctx, wireName, query)
			},
		})
	}
	return caps, nil
}

// Registry holds the agent's capabilities and their Genkit tool bindings.
type Registry struct {
	caps   map[string]Capability
	order  []string
	refs   []ai.ToolRef
	logger *slog.Logger
}

// NewRegistry binds the capabilities as Genkit tools on g. Binding makes
// them routable by the model; execution still goes through Call, so the
// same registry serves both the self-managed loop and Genkit's own one.
func NewRegistry(g *genkit.Genkit, caps []Capability, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		caps:   make(map[string]Capability, len(caps)),
		logger: logger,
	}
	for _, c := range caps {
		c := c
		r.caps[c.Name] = c
		r.order = append(r.order, c.Name)

		tool := genkit.DefineTool(g, c.Name, c.Description,
			func(tctx *ai.ToolContext, in QueryInput) (string, error) {
				logger.Debug("tool invoked", "tool", c.Name, "query", in.Query)
				return c.Call(tctx.Context, in.Query)
			})
		r.refs = append(r.refs, tool)
	}
	return r
}

// Refs returns the Genkit tool references in registration order.
func (r *Registry) Refs() []ai.ToolRef {
	return r.refs
}

// Names returns the capability names in registration order.
func (r *Registry) Names() []string {
	return r.order
}

// Describe renders a name-and-description roster for prompts.
func (r *Registry) Describe() string {
	var out string
	for _, name := range r.order {
		out += fmt.Sprintf("- %s: %s\n", name, r.caps[name].Description)
	}
	return out
}

// Call dispatches to the named capability.
func (r *Registry) Call(ctx context.Context, name, query string) (string, error) {
	c, ok := r.caps[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return c.Call(ctx, query)
}
