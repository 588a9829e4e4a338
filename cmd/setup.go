package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/deskmate-ai/deskmate/internal/agent"
	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/log"
	"github.com/deskmate-ai/deskmate/internal/mcp"
)

// newLogger builds the process logger. DESKMATE_DEBUG switches on debug
// level; servers log JSON when DESKMATE_LOG_JSON is set.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DESKMATE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{
		Level: level,
		JSON:  os.Getenv("DESKMATE_LOG_JSON") != "",
	})
}

// initGenkit initializes Genkit with the Gemini plugin.
func initGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	g := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.GoogleAPIKey}),
	)
	if g == nil {
		return nil, fmt.Errorf("initializing genkit with gemini provider")
	}
	return g, nil
}

// chatModelName is the fully qualified model reference for generation.
func chatModelName(cfg *config.Config) string {
	return "googleai/" + cfg.ModelName
}

// embedder looks up the configured Gemini embedder.
func embedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// connectTools dials both tool servers and assembles the capability
// registry. The returned cleanup closes the MCP sessions.
func connectTools(ctx context.Context, g *genkit.Genkit, cfg *config.Config, logger log.Logger) (*agent.Registry, func(), error) {
	var clients []*mcp.Client
	cleanup := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}

	var caps []agent.Capability
	for _, endpoint := range []string{cfg.SQLEndpoint(), cfg.RAGEndpoint()} {
		client, err := mcp.Connect(ctx, endpoint, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting to tool server %s: %w (is it running?)", endpoint, err)
		}
		clients = append(clients, client)

		discovered, err := agent.FromMCP(ctx, client)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("discovering tools at %s: %w", endpoint, err)
		}
		caps = append(caps, discovered...)
	}

	if len(caps) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("tool servers advertised no tools")
	}

	return agent.NewRegistry(g, caps, logger), cleanup, nil
}
