// Package cli implements the anker command-line interface. Commands
// are thin adapters over the driving ports; the composition root in
// cmd/anker injects the services before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/veridian-labs/anker/internal/core/ports/driving"
	"github.com/veridian-labs/anker/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root.
var (
	assistantService driving.AssistantService
	indexerService   driving.IndexerService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "anker",
	Short: "Grounded QA assistant core with tiered conversational memory",
	Long: `Anker indexes domain documents and serves grounded, cited context
for question answering. It combines keyword and semantic retrieval with
cross-encoder reranking, and keeps per-session conversational memory
with rolling summaries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the core services into the command tree.
// Must be called before Execute.
func SetServices(assistant driving.AssistantService, indexer driving.IndexerService) {
	assistantService = assistant
	indexerService = indexer
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
