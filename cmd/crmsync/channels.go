/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/colors"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/spf13/cobra"
)

type channelsClient interface {
	ListChannels(ctx context.Context) ([]domain.ChannelState, error)
	SetChannel(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error)
}

// channelsOutputWriter is the writer used by the channels subcommands. Can be changed for testing.
var channelsOutputWriter io.Writer = os.Stdout

// NewChannelsCmd creates the channels command group with explicit dependencies.
func NewChannelsCmd(client channelsClient) *cobra.Command {
	if client == nil {
		panic("NewChannelsCmd: client dependency cannot be nil")
	}

	channelsCmd := &cobra.Command{
		Use:   "channels",
		Short: "Show and switch notification delivery channels",
		Long: `Show and switch notification delivery channels.

Channel settings are stored by "crmsync feed sync".

USAGE:
    crmsync channels <subcommand> [OPTIONS]

SUBCOMMANDS:
    list                     List delivery channels
    set <channel> <on|off>   Enable or disable a channel`,
	}

	var outputFormat string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := resolveFormatter(outputFormat)
			if err != nil {
				return err
			}
			states, err := client.ListChannels(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("channels list: %w", err)
			}
			if len(states) == 0 && !structured(outputFormat) {
				colors.Info("No channels stored, run 'crmsync feed sync' first")
				return nil
			}
			return printer.FormatChannels(states, channelsOutputWriter)
		},
	}
	registerFormatFlag(listCmd, &outputFormat)

	setCmd := &cobra.Command{
		Use:   "set <channel> <on|off>",
		Short: "Enable or disable a delivery channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseSwitch(args[1])
			if err != nil {
				return err
			}
			st, err := client.SetChannel(commandContext(cmd), args[0], enabled)
			if err != nil {
				return fmt.Errorf("channels set: %w", err)
			}
			state := "disabled"
			if st.Enabled {
				state = "enabled"
			}
			colors.Success(fmt.Sprintf("Channel %s %s", st.Channel, state))
			return nil
		},
	}

	channelsCmd.AddCommand(listCmd, setCmd)
	return channelsCmd
}

// parseSwitch accepts on/off and the usual boolean spellings.
func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes", "enable", "enabled":
		return true, nil
	case "off", "false", "0", "no", "disable", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch value: %s (must be on or off)", value)
	}
}
