package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var machinesCmd = &cobra.Command{
	Use:   "machines",
	Short: "List the builtin machines and those in --machines-dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		machines, err := newApp().Registry()
		if err != nil {
			return err
		}
		for _, name := range machines.Names() {
			def, err := machines.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", name, def.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(machinesCmd)
}
