package main

import (
	"github.com/aretw0/turing/internal/cli"
	"github.com/spf13/cobra"
)

var graphStart string

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <machine>",
	Short: "Export the transition diagram",
	Long:  `Outputs a Mermaid diagram (graph LR) of the machine's states and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newApp().Graph(cmd.Context(), cli.RunOptions{Machine: args[0], StartState: graphStart})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&graphStart, "start", "s", "", "Start state to highlight (overrides the machine file)")
}
