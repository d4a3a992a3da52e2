/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cristianoliveira/crmsync/internal/colors"
	"github.com/cristianoliveira/crmsync/internal/config"
	"github.com/cristianoliveira/crmsync/internal/core"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/format"
	"github.com/cristianoliveira/crmsync/internal/formatter"
	"github.com/cristianoliveira/crmsync/internal/hooks"
	"github.com/cristianoliveira/crmsync/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

type feedClient interface {
	SyncFeed(ctx context.Context, filters domain.FeedFilters) (core.SyncResult, error)
	ListFeed(ctx context.Context, filters domain.FeedFilters) ([]domain.FeedItem, int, error)
	AllFeed(ctx context.Context) ([]domain.FeedItem, error)
	MarkRead(ctx context.Context, ids []string) (int, error)
	SetImportant(ctx context.Context, ids []string, important bool) (int, error)
	Remove(ctx context.Context, ids []string) (int, error)
}

type journalClient interface {
	ImportFeed(ctx context.Context, r io.Reader, opts sqlite.ImportOptions) (sqlite.ImportStats, error)
	ExportFeed(ctx context.Context, w io.Writer) (int, error)
	Prune(ctx context.Context, daysThreshold int, dryRun bool) (sqlite.PruneStats, error)
}

// feedOutputWriter is the writer used by the feed subcommands. Can be changed for testing.
var feedOutputWriter io.Writer = os.Stdout

// feedInput is read by "feed import -". Can be changed for testing.
var feedInput io.Reader = os.Stdin

// NewFeedCmd creates the feed command group with explicit dependencies.
func NewFeedCmd(client feedClient, journal journalClient, runner hookRunner) *cobra.Command {
	if client == nil {
		panic("NewFeedCmd: client dependency cannot be nil")
	}
	if journal == nil {
		panic("NewFeedCmd: journal dependency cannot be nil")
	}
	if runner == nil {
		panic("NewFeedCmd: hook runner dependency cannot be nil")
	}

	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage the notification feed",
		Long: `Manage the notification feed kept in the local journal.

USAGE:
    crmsync feed <subcommand> [OPTIONS]

SUBCOMMANDS:
    sync                 Fetch the feed from the CRM into the journal
    list                 List journal items
    read <id>...         Mark items as read
    important <id>...    Flag items as important
    unimportant <id>...  Remove the important flag
    remove <id>...       Delete items
    summary              Show feed counts
    status [template]    Render a one line status
    import <file|->      Import items from JSON lines
    export [file]        Export items as JSON lines
    prune                Delete old read items`,
	}

	feedCmd.AddCommand(
		newFeedSyncCmd(client, runner),
		newFeedListCmd(client),
		newFeedMarkCmd("read", "Mark feed items as read", func(ctx context.Context, ids []string) (int, error) {
			return client.MarkRead(ctx, ids)
		}),
		newFeedMarkCmd("important", "Flag feed items as important", func(ctx context.Context, ids []string) (int, error) {
			return client.SetImportant(ctx, ids, true)
		}),
		newFeedMarkCmd("unimportant", "Remove the important flag from feed items", func(ctx context.Context, ids []string) (int, error) {
			return client.SetImportant(ctx, ids, false)
		}),
		newFeedMarkCmd("remove", "Delete feed items", func(ctx context.Context, ids []string) (int, error) {
			return client.Remove(ctx, ids)
		}),
		newFeedSummaryCmd(client),
		newFeedStatusCmd(client),
		newFeedImportCmd(journal),
		newFeedExportCmd(journal),
		newFeedPruneCmd(journal),
	)

	return feedCmd
}

// registerFeedFilterFlags registers the filter flags shared by sync and list.
func registerFeedFilterFlags(cmd *cobra.Command, filters *domain.FeedFilters, status *string) {
	cmd.Flags().StringVar(&filters.Category, "category", "", "Filter by category (deal, payment, task, security)")
	cmd.Flags().StringVar(&filters.Source, "source", "", "Filter by source (crm, payments, system)")
	cmd.Flags().StringVar(status, "status", string(domain.FeedStatusAll), "Filter by status: all, unread, important, failed")
	cmd.Flags().StringVar(&filters.Search, "search", "", "Search titles, messages and tags")
}

func feedFilters(filters domain.FeedFilters, status string) (domain.FeedFilters, error) {
	filters.Status = domain.FeedStatus(status)
	if !filters.Status.IsValid() {
		return domain.FeedFilters{}, fmt.Errorf("invalid status: %s (must be all, unread, important, failed)", status)
	}
	return filters.Normalize(), nil
}

func newFeedSyncCmd(client feedClient, runner hookRunner) *cobra.Command {
	var filters domain.FeedFilters
	var status string

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the feed from the CRM into the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := feedFilters(filters, status)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			res, err := client.SyncFeed(ctx, f)
			if err != nil {
				return fmt.Errorf("feed sync: %w", err)
			}
			colors.Success(fmt.Sprintf("Synced %d notifications (%d unread)", res.Items, res.Unread))
			return runner.Run(ctx, hooks.PointPostSync, hooks.SyncEnv(res.Items, res.Unread))
		},
	}
	registerFeedFilterFlags(syncCmd, &filters, &status)
	return syncCmd
}

func newFeedListCmd(client feedClient) *cobra.Command {
	var filters domain.FeedFilters
	var status string
	var outputFormat string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List journal items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := feedFilters(filters, status)
			if err != nil {
				return err
			}
			printer, err := resolveFormatter(outputFormat)
			if err != nil {
				return err
			}
			items, _, err := client.ListFeed(commandContext(cmd), f)
			if err != nil {
				return fmt.Errorf("feed list: %w", err)
			}
			if len(items) == 0 && !structured(outputFormat) {
				colors.Info("No notifications")
				return nil
			}
			return printer.FormatFeed(items, feedOutputWriter)
		},
	}
	registerFeedFilterFlags(listCmd, &filters, &status)
	registerFormatFlag(listCmd, &outputFormat)
	return listCmd
}

func newFeedMarkCmd(name, short string, apply func(ctx context.Context, ids []string) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := apply(commandContext(cmd), args)
			if err != nil {
				return fmt.Errorf("feed %s: %w", name, err)
			}
			colors.Success(fmt.Sprintf("%s: %d notification(s) updated", name, n))
			return nil
		},
	}
}

func newFeedSummaryCmd(client feedClient) *cobra.Command {
	var asJSON bool

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show feed counts by state, category and source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client.AllFeed(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("feed summary: %w", err)
			}
			s := format.Summarize(items)
			if asJSON {
				return format.FormatSummaryJSON(feedOutputWriter, s)
			}
			if err := format.FormatSummary(feedOutputWriter, s); err != nil {
				return err
			}
			if len(s.ByCategory) > 0 {
				fmt.Fprintln(feedOutputWriter, "By category:")
				if err := format.FormatCounts(feedOutputWriter, s.ByCategory); err != nil {
					return err
				}
			}
			return nil
		},
	}
	summaryCmd.Flags().BoolVar(&asJSON, "json", false, "Output the summary as JSON")
	return summaryCmd
}

const feedStatusLong = `Render a one line feed status for status bars and prompts.

The argument is a preset name or a template with {{variable}} placeholders.

USAGE:
    crmsync feed status [preset|template]

PRESETS:
%s
VARIABLES:
    %s`

func newFeedStatusCmd(client feedClient) *cobra.Command {
	registry := formatter.NewPresetRegistry()
	engine := formatter.NewTemplateEngine()

	var presets string
	for _, p := range registry.List() {
		presets += fmt.Sprintf("    %-12s %s\n", p.Name, p.Description)
	}

	return &cobra.Command{
		Use:   "status [preset|template]",
		Short: "Render a one line feed status",
		Long:  fmt.Sprintf(feedStatusLong, presets, joinWrapped(formatter.VariableNames(), 6)),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := "compact"
			if len(args) == 1 {
				template = args[0]
			}
			items, err := client.AllFeed(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("feed status: %w", err)
			}
			line, err := formatter.Render(registry, engine, template, formatter.NewVariableContext(items))
			if err != nil {
				return fmt.Errorf("feed status: %w", err)
			}
			fmt.Fprintln(feedOutputWriter, line)
			return nil
		},
	}
}

func newFeedImportCmd(journal journalClient) *cobra.Command {
	var dryRun bool

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import feed items from a JSON lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := feedInput
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("feed import: %w", err)
				}
				defer f.Close()
				in = f
			}
			stats, err := journal.ImportFeed(commandContext(cmd), in, sqlite.ImportOptions{DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("feed import: %w", err)
			}
			for _, w := range stats.Warnings {
				colors.Warning(w)
			}
			verb := "Imported"
			if dryRun {
				verb = "Would import"
			}
			colors.Success(fmt.Sprintf("%s %d of %d rows (%d skipped, %d duplicates)",
				verb, stats.ImportedRows, stats.TotalRows, stats.SkippedRows, stats.DuplicateRows))
			return nil
		},
	}
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the input without writing")
	return importCmd
}

func newFeedExportCmd(journal journalClient) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export feed items as JSON lines, oldest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := feedOutputWriter
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("feed export: %w", err)
				}
				defer f.Close()
				out = f
			}
			n, err := journal.ExportFeed(commandContext(cmd), out)
			if err != nil {
				return fmt.Errorf("feed export: %w", err)
			}
			if len(args) == 1 && args[0] != "-" {
				colors.Success(fmt.Sprintf("Exported %d notifications to %s", n, args[0]))
			}
			return nil
		},
	}
}

func newFeedPruneCmd(journal journalClient) *cobra.Command {
	var days int
	var dryRun bool

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete read notifications that are not important",
		Long: `Delete read notifications that are not flagged important.

USAGE:
    crmsync feed prune [OPTIONS]

OPTIONS:
    --days <n>       Only delete items older than N days (0 deletes every read item)
    --dry-run        Report what would be deleted
    -h, --help       Show this help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := journal.Prune(commandContext(cmd), days, dryRun)
			if err != nil {
				return fmt.Errorf("feed prune: %w", err)
			}
			if stats.DryRun {
				colors.Info(fmt.Sprintf("Would delete %d notifications", stats.Matched))
				return nil
			}
			colors.Success(fmt.Sprintf("Deleted %d notifications", stats.Deleted))
			return nil
		},
	}
	pruneCmd.Flags().IntVar(&days, "days", 30, "Only delete items older than N days")
	pruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be deleted")
	return pruneCmd
}

// registerFormatFlag registers --format with the configured default.
func registerFormatFlag(cmd *cobra.Command, outputFormat *string) {
	cmd.Flags().StringVar(outputFormat, "format", config.Get("output_format", "table"),
		"Output format: simple, table, compact, json, yaml")
}

func resolveFormatter(name string) (format.Formatter, error) {
	t := format.FormatterType(name)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid format: %s (must be simple, table, compact, json, yaml)", name)
	}
	return format.NewFormatter(t), nil
}

func structured(name string) bool {
	return name == string(format.FormatterTypeJSON) || name == string(format.FormatterTypeYAML)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// joinWrapped joins words with ", " and breaks the line every perLine words.
func joinWrapped(words []string, perLine int) string {
	out := ""
	for i, w := range words {
		switch {
		case i == 0:
		case i%perLine == 0:
			out += ",\n    "
		default:
			out += ", "
		}
		out += w
	}
	return out
}
