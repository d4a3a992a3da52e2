/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/colors"
	"github.com/cristianoliveira/crmsync/internal/core"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/hooks"
	"github.com/spf13/cobra"
)

type watchClient interface {
	Watch(ctx context.Context, cfg core.WatchConfig) error
}

// watchOutputWriter is the writer used by the watch command. Can be changed for testing.
var watchOutputWriter io.Writer = os.Stdout

// watchContext returns the context the watch loop runs under. Can be changed for testing.
var watchContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// NewWatchCmd creates the watch command with explicit dependencies.
func NewWatchCmd(client watchClient, cfg bridge.Config, runner hookRunner) *cobra.Command {
	if client == nil {
		panic("NewWatchCmd: client dependency cannot be nil")
	}
	if runner == nil {
		panic("NewWatchCmd: hook runner dependency cannot be nil")
	}

	var outputFormat string
	var showEffects bool

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the CRM push channels",
		Long: `Follow the CRM push channels and print notifications as they arrive.

Deal changes invalidate cached views, payment events are described in plain
language and notification feed items are stored in the journal. A channel
that fails is disabled without affecting the others. Scripts in the
on-notification and on-feed-item hook directories run for every event.
Stop with Ctrl+C.

USAGE:
    crmsync watch [OPTIONS]

OPTIONS:
    --format <format>    Notification format: simple (default), table, compact, json, yaml
    --effects            Also print the effects of every message
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := resolveFormatter(outputFormat)
			if err != nil {
				return err
			}
			if cfg.Mock {
				colors.Warning("mock mode: push channels are not opened")
			} else if cfg.CRMURL == "" && cfg.NotificationsURL == "" && cfg.PaymentsURL == "" {
				colors.Warning("no stream URLs configured, nothing to watch")
			}

			ctx, stop := watchContext(commandContext(cmd))
			defer stop()

			var mu sync.Mutex
			runHook := func(point string, env map[string]string) {
				if err := runner.Run(ctx, point, env); err != nil {
					colors.Warning(err.Error())
				}
			}
			wc := core.WatchConfig{
				Bridge: cfg,
				OnNotify: func(n domain.Notification) {
					mu.Lock()
					if err := printer.FormatNotifications([]domain.Notification{n}, watchOutputWriter); err != nil {
						colors.Error(fmt.Sprintf("print notification: %v", err))
					}
					mu.Unlock()
					runHook(hooks.PointNotification, hooks.NotificationEnv(n))
				},
				OnEffects: func(ch bridge.Channel, effects []bridge.Effect) {
					if showEffects {
						mu.Lock()
						fmt.Fprintf(watchOutputWriter, "[%s]\n", ch)
						if err := printer.FormatEffects(effects, watchOutputWriter); err != nil {
							colors.Error(fmt.Sprintf("print effects: %v", err))
						}
						mu.Unlock()
					}
					for _, e := range effects {
						if ingest, ok := e.(bridge.Ingest); ok {
							runHook(hooks.PointFeedItem, hooks.FeedItemEnv(ingest.Item))
						}
					}
				},
			}

			colors.Info("Watching push channels, press Ctrl+C to stop")
			if err := client.Watch(ctx, wc); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
	watchCmd.Flags().StringVar(&outputFormat, "format", "simple", "Notification format: simple, table, compact, json, yaml")
	watchCmd.Flags().BoolVar(&showEffects, "effects", false, "Also print the effects of every message")
	return watchCmd
}
