package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/pkg/ports"
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree [dir]",
	Short: "Export the resolved component tree",
	Long:  `Renders the first step of a thread and outputs a Mermaid diagram (graph TD) of the resolved tree.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, opts, closeStore, err := setup(cmd, args, nil)
		if err != nil {
			return err
		}
		defer closeStore()

		if _, err := engine.Render(cmd.Context(), ports.RenderRequest{Thread: opts.Thread}); err != nil {
			return err
		}
		turn, err := engine.Manager().Latest(opts.Thread)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if stateful, _ := cmd.Flags().GetBool("stateful"); stateful {
			overlay = &graph.GraphOverlay{Stateful: true}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(turn.Output.Tree, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Bool("stateful", false, "Highlight components holding state")
}
