package main

import (
	"os"

	"github.com/aretw0/turing/internal/cli"
	"github.com/aretw0/turing/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runOpts cli.RunOptions

var runCmd = &cobra.Command{
	Use:   "run [machine]",
	Short: "Run a machine and show its trace",
	Long: `Runs a builtin machine (see 'turing machines') or a machine file
(.yaml, .json, or bare rule text) and prints every snapshot of the trace.

With --watch a machine file is run again on every save.

With --interactive the trace is played back from the keyboard:
  <enter>/n forward, b backward, r reset, a auto-play, g <i> jump, q quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOpts
		if len(args) > 0 {
			opts.Machine = args[0]
		}
		opts.InputSet = cmd.Flags().Changed("input")
		// Piped commands still work; the banner is for people.
		if opts.Interactive && cli.IsTerminal(os.Stdin) {
			tui.PrintBanner(os.Stdout, cli.ColorProfile(os.Stdout))
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		if opts.Watch {
			return newApp().Watch(sigCtx, opts)
		}
		return newApp().Run(sigCtx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVarP(&runOpts.Machine, "machine", "m", "equal_counts", "Builtin machine name or machine file")
	f.StringVarP(&runOpts.StartState, "start", "s", "", "Start state (overrides the machine file)")
	f.StringVarP(&runOpts.Input, "input", "i", "", "Input tape; --input \"\" runs on the empty tape (defaults to the machine's sample input)")
	f.StringVar(&runOpts.Accept, "accept", "", "State read as acceptance (default state_accept)")
	f.StringVar(&runOpts.Reject, "reject", "", "State read as rejection (default state_reject)")
	f.BoolVar(&runOpts.JSON, "json", false, "Print the {error, data} envelope instead of the trace")
	f.BoolVar(&runOpts.Report, "report", false, "Render a markdown report of the run")
	f.BoolVar(&runOpts.Graph, "graph", false, "Print the Mermaid diagram (appended to --report)")
	f.BoolVarP(&runOpts.Interactive, "interactive", "I", false, "Step through the trace from the keyboard")
	f.DurationVar(&runOpts.Auto, "auto", 0, "Auto-play the trace with this delay between snapshots")
	f.StringVar(&runOpts.SessionID, "save", "", "Persist the run as this session ID")
	f.BoolVarP(&runOpts.Watch, "watch", "w", false, "Run the machine file again every time it changes")
}
