/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cristianoliveira/crmsync/internal/format"
	"github.com/cristianoliveira/crmsync/internal/version"
	"github.com/spf13/cobra"
)

// versionOutputWriter is the writer used by PrintVersion. Can be changed for testing.
var versionOutputWriter io.Writer = os.Stdout

// PrintVersion writes the one line version banner.
func PrintVersion() {
	fmt.Fprintf(versionOutputWriter, "crmsync version %s\n", version.String())
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var outputFormat string

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show the current version of crmsync.

USAGE:
    crmsync version [OPTIONS]

OPTIONS:
    --format <format>    Output format: text (default), json, yaml
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "", "text":
				PrintVersion()
				return nil
			case "json", "yaml":
				return format.Encode(versionOutputWriter, format.FormatterType(outputFormat), version.Get())
			default:
				return fmt.Errorf("version: invalid format %q (must be text, json or yaml)", outputFormat)
			}
		},
	}
	versionCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format: text, json, yaml")

	return versionCmd
}
