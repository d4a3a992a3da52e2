/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/version"
	"github.com/spf13/cobra"
)

const description = "Realtime companion for the insurance CRM: deals, payments and the notification feed."

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "crmsync",
	Short:         description,
	Long:          description,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// outputWriter is where PrintHelp writes. nil means stdout.
var outputWriter io.Writer

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.Version = version.String()
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	defaultHelp := RootCmd.HelpFunc()
	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.HasParent() {
			defaultHelp(cmd, args)
			return
		}
		PrintHelp(cmd)
	})
}

// commandOrder is the order commands are listed in the help text.
var commandOrder = []string{
	"watch",
	"deals",
	"feed",
	"channels",
	"classify",
	"help",
	"version",
}

// PrintHelp writes the top level help text of cmd.
func PrintHelp(cmd *cobra.Command) {
	w := outputWriter
	if w == nil {
		w = os.Stdout
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Name(), found.Short))
	}

	fmt.Fprintf(w, `crmsync v%s

%s

USAGE:
    crmsync [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    -h, --help      Show help message

CONFIGURATION:
    Settings are read from $XDG_CONFIG_HOME/crmsync/config.toml and can be
    overridden with CRMSYNC_<KEY> environment variables or a .env file.
    Set CRMSYNC_API_BASE_URL=mock to run against the built-in demo data.
`, cmd.Version, description, strings.Join(cmdLines, "\n"))
}
