package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskmate-ai/deskmate/internal/agent"
	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/trace"
)

var crewCmd = &cobra.Command{
	Use:   "crew",
	Short: "Interactive chat using the manager/specialist crew",
	RunE:  runCrew,
}

func init() {
	rootCmd.AddCommand(crewCmd)
}

func runCrew(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	shutdownTrace, err := trace.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = shutdownTrace(context.Background()) }()

	g, err := initGenkit(ctx, cfg)
	if err != nil {
		return err
	}

	registry, closeTools, err := connectTools(ctx, g, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTools()

	// Specialists are keyed to the registry's registration order: the SQL
	// server is dialed first, so refs[0] is the database tool.
	refs := registry.Refs()
	if len(refs) < 2 {
		return fmt.Errorf("expected both tools, got %d", len(refs))
	}
	crew := agent.NewCrew(g, chatModelName(cfg), []agent.Specialist{
		agent.DataAnalystSpecialist(refs[0], cfg.MaxTurns),
		agent.DocumentSpecialist(refs[1], cfg.MaxTurns),
	}, logger)

	fmt.Println("Deskmate crew ready. Type 'exit' to quit.")
	if cfg.Tracing() {
		fmt.Printf("Tracing enabled (project: %s)\n", cfg.TracingProject)
	} else {
		fmt.Println("Tracing disabled.")
	}
	fmt.Println()

	return chatLoop(os.Stdin, func(question string) (string, error) {
		return crew.Kickoff(ctx, question)
	})
}
