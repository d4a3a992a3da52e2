/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/spf13/cobra"
)

// classifyOutputWriter is the writer used by the classify command. Can be changed for testing.
var classifyOutputWriter io.Writer = os.Stdout

// classifyInput is read when no message argument is given. Can be changed for testing.
var classifyInput io.Reader = os.Stdin

// NewClassifyCmd creates the classify command. It runs offline: the message
// is classified and the effects are printed, nothing is applied.
func NewClassifyCmd(opts bridge.Options) *cobra.Command {
	var outputFormat string

	classifyCmd := &cobra.Command{
		Use:   "classify <channel> [message]",
		Short: "Show the effects a push message would have",
		Long: `Show the effects a push message would have, without applying them.

The message is read from standard input when it is not given as an argument.

USAGE:
    crmsync classify <channel> [message]

CHANNELS:
    crm, notifications, payments

EXAMPLES:
    crmsync classify crm '{"type":"deal.updated","dealId":"deal-1"}'
    tail -n1 events.log | crmsync classify payments`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := parseChannel(args[0])
			if err != nil {
				return err
			}
			printer, err := resolveFormatter(outputFormat)
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			} else {
				data, err := io.ReadAll(classifyInput)
				if err != nil {
					return fmt.Errorf("classify: read message: %w", err)
				}
				raw = strings.TrimRight(string(data), "\r\n")
			}
			effects := bridge.Classify(ch, raw, opts)
			if len(effects) == 0 && !structured(outputFormat) {
				fmt.Fprintln(classifyOutputWriter, "no effects")
				return nil
			}
			return printer.FormatEffects(effects, classifyOutputWriter)
		},
	}
	classifyCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: simple, table, compact, json, yaml")
	return classifyCmd
}

func parseChannel(name string) (bridge.Channel, error) {
	for _, ch := range bridge.Channels {
		if string(ch) == name {
			return ch, nil
		}
	}
	return "", fmt.Errorf("unknown channel: %s (must be crm, notifications, payments)", name)
}
