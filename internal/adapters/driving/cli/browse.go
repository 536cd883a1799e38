package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the node graph interactively",
	Long: `Opens a terminal browser over the node graph: pick a type, filter its
nodes, open a node and follow parent references.

With --live the collections are loaded with live sync enabled and the
browser reflects source changes on refresh (r).`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().Bool("live", false, "keep watched collections in sync while browsing")
	rootCmd.AddCommand(browseCmd)
}

// runProgram runs the TUI. Replaced in tests.
var runProgram = func(ctx context.Context, model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	live, err := cmd.Flags().GetBool("live")
	if err != nil {
		return fmt.Errorf("getting live flag: %w", err)
	}

	eng, err := newEngine(cmd.Context(), engineOptions{liveSync: live})
	if err != nil {
		return err
	}
	defer eng.Close()

	if live || !eng.persistent() {
		if err := eng.loader.Load(cmd.Context()); err != nil {
			return fmt.Errorf("load failed: %w", err)
		}
	}

	app, err := tui.NewApp(&tui.Ports{Graph: eng.graph, Loader: eng.loader})
	if err != nil {
		return err
	}

	err = runProgram(cmd.Context(), app.WithContext(cmd.Context()))
	if err != nil && cmd.Context().Err() != nil {
		// Interrupted.
		return nil
	}
	return err
}
