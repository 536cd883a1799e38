// Package cli provides the cobra command tree of the docgraph binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/logger"
)

var (
	version = "dev"

	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "docgraph",
	Short: "Materialise document database collections into a typed node graph",
	Long: `docgraph walks the collections declared in its configuration file,
turns every document into a typed node, mirrors referenced images locally
and, when live sync is enabled, keeps the graph in step with the source.

Collections are read from a directory of JSON documents or from Firestore
and stored in memory or in a SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetOutput(cmd.ErrOrStderr())
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ~/.docgraph/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
