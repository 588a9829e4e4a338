package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/database"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the company database with its seed data",
	Long: `Recreates the SQLite company database from scratch: employees,
products and sales tables with fixed sample rows. Rerunning produces an
identical database.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Rebuild(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("rebuilding database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Database %q created and seeded.\n", cfg.DatabasePath)
	return nil
}
