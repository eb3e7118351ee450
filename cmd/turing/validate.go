package main

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <machine>",
	Short: "Check a rule table for malformed lines",
	Long:  `Parses a machine file or builtin and reports every malformed or duplicate rule with its line number.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newApp().Validate(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
