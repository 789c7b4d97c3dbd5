package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/anker/internal/loaders/textfile"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest documents from a directory",
	Long: `Ingests every plain-text and markdown file under the given directory.
A form feed character inside a file marks a page break. Document IDs are
the file paths relative to the directory, so re-running ingest replaces
changed documents in place.

With --watch the command keeps running and re-ingests on file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	dir := args[0]
	loader := textfile.New(dir, indexerService)

	loaded, warnings, err := loader.LoadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	for _, w := range warnings {
		cmd.Printf("  warning: %s\n", w)
	}
	cmd.Printf("Ingested %d documents from %s\n", loaded, dir)

	if ingestWatch {
		return loader.Watch(cmd.Context())
	}
	return nil
}
