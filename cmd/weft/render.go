package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/weft/pkg/ports"
)

var renderCmd = &cobra.Command{
	Use:   "render [dir]",
	Short: "Render the next steps of a thread and print the last one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, opts, closeStore, err := setup(cmd, args, nil)
		if err != nil {
			return err
		}
		defer closeStore()

		steps, _ := cmd.Flags().GetInt("steps")
		jsonMode, _ := cmd.Flags().GetBool("json")
		req := ports.RenderRequest{Thread: opts.Thread}
		if cmd.Flags().Changed("input") {
			input, _ := cmd.Flags().GetString("input")
			req.Input = input
		}
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}

		var turn ports.RenderedTurn
		for i := 0; i < steps; i++ {
			if turn, err = engine.Render(cmd.Context(), req); err != nil {
				return err
			}
		}

		p := printer(cmd)
		if jsonMode {
			return p.JSON(turn)
		}
		return p.Turn(turn)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("input", "i", "", "Input available to the components")
	renderCmd.Flags().Int("steps", 1, "Number of steps to render")
	renderCmd.Flags().Bool("json", false, "Print the turn as JSON")
}
