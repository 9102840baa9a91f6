package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aretw0/weft/pkg/ports"
)

// actionSchema is an action with its arguments as JSON schema.
type actionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

var actionsCmd = &cobra.Command{
	Use:   "actions [dir]",
	Short: "List the actions of the first step with their JSON schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, opts, closeStore, err := setup(cmd, args, nil)
		if err != nil {
			return err
		}
		defer closeStore()

		turn, err := engine.Render(cmd.Context(), ports.RenderRequest{Thread: opts.Thread})
		if err != nil {
			return err
		}
		out := make([]actionSchema, 0, len(turn.Descriptors))
		for _, d := range turn.Descriptors {
			in, err := d.Parameters.JSONSchema()
			if err != nil {
				return err
			}
			out = append(out, actionSchema{Name: d.Name, Description: d.Description, InputSchema: in})
		}
		return printer(cmd).JSON(out)
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
}
