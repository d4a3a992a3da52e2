/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// helpCmd represents the help command
var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show this help message",
	Long:  `Show this help message, or the help of a command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		if len(args) == 0 {
			return root.Help()
		}
		target, _, err := root.Find(args)
		if err != nil {
			return err
		}
		return target.Help()
	},
}

func init() {
	RootCmd.SetHelpCommand(helpCmd)
}
