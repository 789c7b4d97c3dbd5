package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Shows what is currently ingested and available for retrieval.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	docs, err := indexerService.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading index status: %w", err)
	}

	totalPages := 0
	for i := range docs {
		totalPages += docs[i].PageCount
	}

	cmd.Printf("Documents: %d\n", len(docs))
	cmd.Printf("Pages:     %d\n", totalPages)
	if len(docs) == 0 {
		cmd.Println("\nRun 'anker ingest <directory>' to index documents.")
	}
	return nil
}
