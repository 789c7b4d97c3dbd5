package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/anker/internal/core/domain"
)

var (
	queryUser    string
	querySession string
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve grounded context for a question",
	Long: `Runs the full retrieval pipeline for a question: hybrid keyword and
semantic retrieval, reranking, memory snapshot, and context assembly.
Prints the assembled context with citation tags. The context is meant to
ground an external answering step; this command does not generate an
answer itself.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryUser, "user", "u", "default", "user scope for memory")
	queryCmd.Flags().StringVarP(&querySession, "session", "s", "default", "conversation session")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	query := args[0]
	result, err := assistantService.RetrieveContext(cmd.Context(), queryUser, querySession, query)
	if err != nil {
		return fmt.Errorf("retrieving context: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}
	return outputQueryText(cmd, result)
}

func outputQueryJSON(cmd *cobra.Command, result *domain.AssembledContext) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, result *domain.AssembledContext) error {
	cmd.Println(result.Text)

	if len(result.Citations) > 0 {
		cmd.Println()
		cmd.Println("Citations:")
		refs := make([]int, 0, len(result.Citations))
		for ref := range result.Citations {
			refs = append(refs, ref)
		}
		sort.Ints(refs)
		for _, ref := range refs {
			c := result.Citations[ref]
			cmd.Printf("  [%d] %s, page %d\n", ref, c.DocumentID, c.Page)
		}
	}

	if result.Dropped > 0 {
		cmd.Printf("\n(%d lower-ranked passages dropped to fit the context budget)\n", result.Dropped)
	}
	printFlags(cmd, result.Flags)
	return nil
}

func printFlags(cmd *cobra.Command, flags domain.RetrievalFlags) {
	if flags.Unavailable {
		cmd.Println("\nNote: retrieval was unavailable; context contains memory only.")
		return
	}
	if flags.DenseUnavailable {
		cmd.Println("\nNote: semantic search unavailable, keyword results only.")
	}
	if flags.SparseUnavailable {
		cmd.Println("\nNote: keyword search unavailable, semantic results only.")
	}
	if flags.RerankDegraded {
		cmd.Println("\nNote: reranking unavailable, results in fusion order.")
	}
	if flags.MemoryUnavailable {
		cmd.Println("\nNote: memory store unavailable, running stateless.")
	}
}
