package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Load collections and keep them in sync",
	Long: `Loads every configured collection with live sync enabled, then keeps
the watched collections synchronised until interrupted. Only collections
declared with watch = true are followed.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine(cmd.Context(), engineOptions{liveSync: true})
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := loadWithProgress(cmd, eng.loader); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	stats, err := eng.loader.Stats(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Loaded %d nodes\n", stats.TotalNodes())
	printStats(cmd, stats)
	if stats.Watches == 0 {
		cmd.Println("No collection is marked watch = true; nothing to follow.")
		return nil
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	<-cmd.Context().Done()
	cmd.Println("Stopping.")
	return nil
}
