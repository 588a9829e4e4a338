// Package agent orchestrates the model's tool-calling loop over the MCP
// capabilities. Two styles are provided: Agent runs an explicit
// decide-then-execute state machine, Crew delegates through a manager
// and role-scoped specialists.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// ErrTurnBudget indicates the model kept requesting tools past the
// allowed number of turns without producing a final answer.
var ErrTurnBudget = errors.New("tool loop exceeded turn budget")

// graphSystemPrompt frames the assistant and its capabilities.
const graphSystemPrompt = `You are a helpful assistant that answers questions using the tools
available to you. Use CompanyDatabaseTool for questions about employees,
products and sales. Use PDFDocumentSearchTool for questions about the
indexed document. Answer directly from tool output; when the tools return
no useful information, say so instead of guessing.`

// Agent runs the explicit tool loop: the model decides, the agent
// executes, tool output goes back as a tool message, repeat until the
// model answers in plain text or the turn budget runs out.
type Agent struct {
	g         *genkit.Genkit
	modelName string
	maxTurns  int
	tools     *Registry
	logger    *slog.Logger
}

// New creates an agent over the given registry.
func New(g *genkit.Genkit, modelName string, maxTurns int, tools *Registry, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		g:         g,
		modelName: modelName,
		maxTurns:  maxTurns,
		tools:     tools,
		logger:    logger,
	}
}

// Ask appends the question to the conversation and runs the tool loop
// until the model produces a final text answer. The conversation keeps
// every intermediate tool exchange, so follow-up questions see them.
func (a *Agent) Ask(ctx context.Context, conv *Conversation, question string) (string, error) {
	conv.AddUser(question)

	for turn := 0; turn < a.maxTurns; turn++ {
		resp, err := genkit.Generate(ctx, a.g,
			ai.WithModelName(a.modelName),
			ai.WithSystem(graphSystemPrompt),
			ai.WithMessages(conv.Messages()...),
			ai.WithTools(a.tools.Refs()...),
			ai.WithReturnToolRequests(true),
			ai.WithConfig(&genai.GenerateContentConfig{
				Temperature: genai.Ptr(float32(0)),
			}),
		)
		if err != nil {
			return "", fmt.Errorf("generating turn %d: %w", turn, err)
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			conv.Add(resp.Message)
			a.logger.Debug("final answer", "session", conv.ID(), "turns", turn+1)
			return resp.Text(), nil
		}

		conv.Add(resp.Message)
		conv.Add(a.executeTools(ctx, requests))
	}

	return "", fmt.Errorf("%w: no final answer after %d turns", ErrTurnBudget, a.maxTurns)
}

// executeTools dispatches every requested tool and bundles the outputs
// into a single tool message. Dispatch failures become text output so the
// model can react to them.
func (a *Agent) executeTools(ctx context.Context, requests []*ai.ToolRequest) *ai.Message {
	parts := make([]*ai.Part, 0, len(requests))
	for _, req := range requests {
		query := queryArgument(req.Input)
		a.logger.Info("executing tool", "tool", req.Name, "query", query)

		output, err := a.tools.Call(ctx, req.Name, query)
		if err != nil {
			a.logger.Error("tool call failed", "tool", req.Name, "error", err)
			output = fmt.Sprintf("Error: tool %s failed: %v", req.Name, err)
		}

		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: output,
		}))
	}
	return ai.NewMessage(ai.RoleTool, nil, parts...)
}

// queryArgument pulls the query string out of a tool request's input.
func queryArgument(input any) string {
	if m, ok := input.(map[string]any); ok {
		if q, ok := m["query"].(string); ok {
			return q
		}
	}
	if s, ok := input.(string); ok {
		return s
	}
	return ""
}
