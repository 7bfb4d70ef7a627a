package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/preston-fay/televantage-copilot/chunking"
	"github.com/preston-fay/televantage-copilot/corpus"
	"github.com/preston-fay/televantage-copilot/knowledge"
	"github.com/preston-fay/televantage-copilot/preprocess"
)

var indexFile string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the knowledge corpus",
	Long: `Chunk the strategy knowledge base, embed every chunk, and write the
corpus artifact the retriever loads at question time.

By default the bundled knowledge document is indexed; --file indexes a
markdown document of your own with the same section structure.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexFile, "file", "", "markdown document to index instead of the bundled one")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	document := knowledge.Document()
	if indexFile != "" {
		data, err := os.ReadFile(indexFile)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		document = string(data)
	}
	document = preprocess.Document(document)

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}

	builder := corpus.NewBuilder(chunking.New(), embedder)
	c, meta, err := builder.Build(ctx, document, knowledge.Sections())
	if err != nil {
		return err
	}

	path := cfg.Retrieval.CorpusPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create corpus directory: %w", err)
		}
	}
	store := corpus.NewStore(path)
	if err := store.Save(ctx, c, meta); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks across %d sections (%d tokens) into %s\n",
		meta.ChunkCount, meta.SectionCount, meta.TotalTokens, path)
	return nil
}
