package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List node types",
	Long: `Lists the node types held by the store with their node counts.
With the memory store the collections are loaded first.`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

var nodesCmd = &cobra.Command{
	Use:   "nodes [type]",
	Short: "List the nodes of a type",
	Long: `Lists the id and path of every node of a type. With --json the nodes
are printed with all of their fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodes,
}

func init() {
	nodesCmd.Flags().Bool("json", false, "print full nodes as JSON")
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(nodesCmd)
}

// openGraph builds an engine and loads it unless the store is persistent.
func openGraph(cmd *cobra.Command) (*engine, error) {
	eng, err := newEngine(cmd.Context(), engineOptions{})
	if err != nil {
		return nil, err
	}
	if !eng.persistent() {
		if err := eng.loader.Load(cmd.Context()); err != nil {
			_ = eng.Close()
			return nil, fmt.Errorf("load failed: %w", err)
		}
	}
	return eng, nil
}

func runTypes(cmd *cobra.Command, _ []string) error {
	eng, err := openGraph(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	types, err := eng.graph.ListTypes(cmd.Context())
	if err != nil {
		return err
	}
	if len(types) == 0 {
		cmd.Println("No types found. Run docgraph load first.")
		return nil
	}

	for _, name := range types {
		nodes, err := eng.graph.ListNodes(cmd.Context(), name)
		if err != nil {
			return err
		}
		cmd.Printf("%-32s %d\n", name, len(nodes))
	}
	return nil
}

func runNodes(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	eng, err := openGraph(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	nodes, err := eng.graph.ListNodes(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if asJSON {
		out := make([]map[string]any, 0, len(nodes))
		for i := range nodes {
			out = append(out, nodes[i].Fields)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for i := range nodes {
		cmd.Printf("%-24s %s\n", nodes[i].ID, nodes[i].Path)
	}
	return nil
}
