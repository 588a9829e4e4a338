// Package cmd wires the command-line interface: the two chat loops, the
// tool servers, the indexer and database setup.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deskmate",
	Short: "Deskmate - ask questions over company data and documents",
	Long: `Deskmate answers natural language questions using two tools: a SQL
tool over the company database and a retrieval tool over an indexed PDF.

Running deskmate without a subcommand starts the interactive chat.
The tool servers must be running first: deskmate serve sql / serve rag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
