package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskmate-ai/deskmate/internal/agent"
	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/trace"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat using the tool-loop agent",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	ag := agent.New(g, chatModelName(cfg), cfg.MaxTurns, registry, logger)
	conv := agent.NewConversation()

	fmt.Println("Deskmate agent ready. Type 'exit' to quit.")
	if cfg.Tracing() {
		fmt.Printf("Tracing enabled (project: %s)\n", cfg.TracingProject)
	} else {
		fmt.Println("Tracing disabled.")
	}
	fmt.Printf("Session: %s\n\n", conv.ID())

	return chatLoop(os.Stdin, func(question string) (string, error) {
		return ag.Ask(ctx, conv, question)
	})
}

// chatLoop runs the shared REPL: read a line, answer it, print, repeat.
// A failed turn is reported and the loop continues.
func chatLoop(in io.Reader, ask func(string) (string, error)) error {
	return chatLoopWriter(in, os.Stdout, os.Stderr, ask)
}

func chatLoopWriter(in io.Reader, out, errOut io.Writer, ask func(string) (string, error)) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		fmt.Fprintln(out, "--- Agent is thinking... ---")
		answer, err := ask(input)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n\n", err)
			continue
		}

		fmt.Fprintln(out, "Final Answer:")
		fmt.Fprintln(out, answer)
		fmt.Fprintln(out, strings.Repeat("-", 40))
	}
}
