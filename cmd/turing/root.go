package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/turing/internal/cli"
	"github.com/spf13/cobra"
)

var cfg = cli.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "turing",
	Short: "Turing is a single-tape Turing machine simulator",
	Long: `Turing parses transition tables, runs them against an input tape and
plays the recorded trace back in the terminal, over HTTP or to MCP agents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		slog.SetDefault(cfg.Logger())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if cli.IsInterrupted(err) {
			return
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newApp wires the shared config to the process streams.
func newApp() *cli.App {
	return &cli.App{
		Config: cfg,
		In:     os.Stdin,
		Out:    os.Stdout,
		Logger: slog.Default(),
	}
}

func init() {
	cfg.BindFlags(rootCmd.PersistentFlags())
}
