// Package cli provides the ragctx command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragctx-cli/internal/logger"
)

// version is the CLI version, overridable at build time via -ldflags.
var version = "0.1.0"

// Services aggregates everything the CLI commands depend on.
// This provides a single injection point for dependency injection.
type Services struct {
	Chunking  driving.ChunkingService
	Embedding driving.EmbeddingService
	Context   driving.ContextService
	Settings  driven.SettingsStore
}

// Package-level services wired by SetServices before Execute.
var (
	chunkingService  driving.ChunkingService
	embeddingService driving.EmbeddingService
	contextService   driving.ContextService
	settingsStore    driven.SettingsStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ragctx",
	Short: "Assemble retrieval context for LLM prompts",
	Long: `ragctx splits documents into semantically coherent chunks, resolves
embedding vectors with caching and batching, and fits ranked retrieval
results into a bounded token budget.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging on stderr")
}

// SetServices wires the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	chunkingService = s.Chunking
	embeddingService = s.Embedding
	contextService = s.Context
	settingsStore = s.Settings
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
