package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// progressInterval is how often the progress line is redrawn.
const progressInterval = 250 * time.Millisecond

// isTerminal reports whether stdout is an interactive terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load all configured collections",
	Long: `Traverses every configured collection, materialises the documents as
nodes and downloads the referenced images. With the sqlite store the nodes
remain available to the types and nodes commands afterwards.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().Bool("ignore-images", false, "keep image URLs as plain strings")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	ignoreImages, err := cmd.Flags().GetBool("ignore-images")
	if err != nil {
		return fmt.Errorf("getting ignore-images flag: %w", err)
	}

	eng, err := newEngine(cmd.Context(), engineOptions{ignoreImages: ignoreImages})
	if err != nil {
		return err
	}
	defer eng.Close()

	start := time.Now()
	if err := loadWithProgress(cmd, eng.loader); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	stats, err := eng.loader.Stats(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Loaded %d nodes in %s\n", stats.TotalNodes(), time.Since(start).Round(time.Millisecond))
	printStats(cmd, stats)
	return nil
}

// loadWithProgress runs the load and, on a terminal, redraws a progress
// line until it finishes.
func loadWithProgress(cmd *cobra.Command, loader driving.Loader) error {
	ctx := cmd.Context()
	if !isTerminal() {
		return loader.Load(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- loader.Load(ctx)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			cmd.Print("\r\033[K")
			return err
		case <-ticker.C:
			// Best effort; a failed read skips one redraw.
			stats, err := loader.Stats(ctx)
			if err != nil {
				continue
			}
			cmd.Printf("\rLoading... %d nodes, %d/%d images",
				stats.TotalNodes(), stats.ImagesDownloaded+stats.ImagesSkipped, stats.ImagesRegistered)
		}
	}
}

func printStats(cmd *cobra.Command, stats *driving.LoadStats) {
	names := make([]string, 0, len(stats.Nodes))
	for name := range stats.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd.Printf("  %-32s %d\n", name, stats.Nodes[name])
	}
	if stats.ImagesRegistered > 0 {
		cmd.Printf("Images: %d registered, %d downloaded, %d skipped, %d failed\n",
			stats.ImagesRegistered, stats.ImagesDownloaded, stats.ImagesSkipped, stats.ImagesFailed)
	}
	if stats.Watches > 0 {
		cmd.Printf("Watching %d collections\n", stats.Watches)
	}
}
