package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/internal/presentation/tui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Play the model in an interactive session",
	Long: `Renders the entry document and reads lines from stdin. Each line is the input of the
next step; lines starting with / run actions and switch threads (see /help).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, opts, closeStore, err := setup(cmd, args, nil)
		if err != nil {
			return err
		}
		defer closeStore()

		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.JSON, _ = cmd.Flags().GetBool("json")

		p := printer(cmd)
		if !opts.JSON {
			tui.PrintBanner(cmd.OutOrStdout(), weft.Version)
			p.Info("Type a message, /help for commands, /quit to leave.")
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.RunSession(sigCtx, engine, opts, cmd.InOrStdin(), p)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("json", false, "Print turns and results as JSON")
	runCmd.Flags().BoolP("watch", "w", false, "Reload documents when they change")
}
