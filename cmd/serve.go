package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/database"
	"github.com/deskmate-ai/deskmate/internal/knowledge"
	"github.com/deskmate-ai/deskmate/internal/mcp"
	"github.com/deskmate-ai/deskmate/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a tool server",
}

var serveSQLCmd = &cobra.Command{
	Use:   "sql",
	Short: "Serve the company database tool over MCP",
	RunE:  runServeSQL,
}

var serveRAGCmd = &cobra.Command{
	Use:   "rag",
	Short: "Serve the PDF retrieval tool over MCP",
	RunE:  runServeRAG,
}

func init() {
	serveCmd.AddCommand(serveSQLCmd)
	serveCmd.AddCommand(serveRAGCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServeSQL(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	g, err := initGenkit(ctx, cfg)
	if err != nil {
		return err
	}

	// Startup-fatal: a missing database means setup never ran.
	db, err := database.OpenReadOnly(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database (run 'deskmate setup' first): %w", err)
	}
	defer db.Close()

	tool := tools.NewSQLTool(g, chatModelName(cfg), db, logger)

	srv := mcp.NewServer(mcp.Config{Name: "company-sql", Version: AppVersion, Logger: logger})
	if err := srv.RegisterSQLTool(tool); err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, cfg.SQLAddr, cfg.MCPPath)
}

func runServeRAG(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	g, err := initGenkit(ctx, cfg)
	if err != nil {
		return err
	}

	embed := knowledge.NewEmbeddingFunc(embedder(g, cfg))
	store, err := knowledge.Open(cfg.VectorDir, cfg.Collection, embed, logger)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	// Startup-fatal: a missing collection means the indexer never ran.
	if err := store.Require(); err != nil {
		return fmt.Errorf("vector collection not ready (run 'deskmate index <pdf>' first): %w", err)
	}

	tool := tools.NewRAGTool(store, cfg.TopK, logger)

	srv := mcp.NewServer(mcp.Config{Name: "pdf-rag", Version: AppVersion, Logger: logger})
	if err := srv.RegisterRAGTool(tool); err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, cfg.RAGAddr, cfg.MCPPath)
}
