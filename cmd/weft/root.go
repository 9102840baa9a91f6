package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/aretw0/weft/pkg/observability"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft renders prompt component trees for LLM conversations",
	Long: `Weft compiles prompt documents (YAML or markdown with frontmatter) into component trees
and renders them turn after turn: a prompt, a system prompt and the actions the model may call.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the prompt documents")
	flags.String("entry", "", "Entry document (default: main, index or the directory name)")
	flags.StringP("thread", "t", "main", "Thread to render")
	flags.String("tools", "", "Process tools config (default: tools.yaml in --dir)")
	flags.Int("gap", 0, "Newlines between blocks (default 2)")
	flags.String("log-level", "", "Log level written to stderr: debug, info, warn, error")
	flags.String("store", "", "Transcript store: memory, file[:dir], bolt[:path], redis[:addr]")
	flags.String("redis", "localhost:6379", "Redis address for --store redis")
	flags.String("encryption-key", "", "Hex AES-256 key encrypting transcripts (or "+cli.EncryptionKeyEnv+")")
	flags.StringSlice("redact", nil, "Regular expressions masked in saved transcripts")
}

// options reads the persistent flags of cmd.
func options(cmd *cobra.Command, args []string) cli.Options {
	f := cmd.Flags()
	opts := cli.Options{}
	opts.Dir, _ = f.GetString("dir")
	opts.Entry, _ = f.GetString("entry")
	opts.Thread, _ = f.GetString("thread")
	opts.Tools, _ = f.GetString("tools")
	opts.Gap, _ = f.GetInt("gap")
	opts.LogLevel, _ = f.GetString("log-level")
	opts.Store, _ = f.GetString("store")
	opts.RedisAddr, _ = f.GetString("redis")
	opts.EncryptionKey, _ = f.GetString("encryption-key")
	opts.Redact, _ = f.GetStringSlice("redact")
	if !f.Changed("dir") && len(args) > 0 {
		opts.Dir = args[0]
	}
	return opts
}

// setup builds the engine for cmd. The returned function releases the store.
func setup(cmd *cobra.Command, args []string, metrics *observability.Metrics) (*weft.Engine, cli.Options, func(), error) {
	opts := options(cmd, args)
	logger, err := cli.CreateLogger(opts.LogLevel)
	if err != nil {
		return nil, opts, nil, err
	}
	engine, persistence, err := cli.NewEngine(opts, logger, metrics)
	if err != nil {
		return nil, opts, nil, err
	}
	return engine, opts, func() { _ = persistence.Close() }, nil
}

// printer writes to the command output, styling it only on terminals.
func printer(cmd *cobra.Command) *tui.Printer {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return tui.NewPrinter(f)
	}
	return tui.NewPlainPrinter(cmd.OutOrStdout())
}
