package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/index"
	"github.com/deskmate-ai/deskmate/internal/knowledge"
)

var indexCmd = &cobra.Command{
	Use:   "index <pdf>",
	Short: "Index a PDF into the vector store",
	Long: `Extracts the PDF's text, splits it into overlapping chunks, embeds
them and rebuilds the vector collection. Reindexing replaces the previous
collection completely.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
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

	ix := index.New(store, cfg.ChunkSize, cfg.ChunkOverlap, logger)
	n, err := ix.IndexPDF(ctx, args[0])
	if err != nil {
		return fmt.Errorf("indexing %s: %w", args[0], err)
	}

	fmt.Printf("Indexed %s: %d chunks stored in collection %q.\n", args[0], n, cfg.Collection)
	return nil
}
