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
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/format"
	"github.com/cristianoliveira/crmsync/internal/mutation"
	"github.com/spf13/cobra"
)

type dealsClient interface {
	ListDeals(ctx context.Context, filters domain.DealFilters) ([]domain.Deal, error)
	GetDeal(ctx context.Context, id string) (domain.Deal, error)
	Payments(ctx context.Context, dealID string) ([]domain.Payment, error)
	StageMetrics(ctx context.Context) ([]domain.StageMetric, error)
	MoveDeal(ctx context.Context, dealID string, stage domain.Stage, transform mutation.DealTransform) (domain.Deal, error)
}

// dealsOutputWriter is the writer used by the deals subcommands. Can be changed for testing.
var dealsOutputWriter io.Writer = os.Stdout

// NewDealsCmd creates the deals command group with explicit dependencies.
func NewDealsCmd(client dealsClient) *cobra.Command {
	if client == nil {
		panic("NewDealsCmd: client dependency cannot be nil")
	}

	dealsCmd := &cobra.Command{
		Use:   "deals",
		Short: "List deals and move them through the pipeline",
		Long: `List deals and move them through the pipeline.

USAGE:
    crmsync deals <subcommand> [OPTIONS]

SUBCOMMANDS:
    list                 List deals
    show <id>            Show a deal and its payments
    move <id> <stage>    Move a deal to another stage
    metrics              Show deal counts and value per stage`,
	}

	dealsCmd.AddCommand(
		newDealsListCmd(client),
		newDealsShowCmd(client),
		newDealsMoveCmd(client),
		newDealsMetricsCmd(client),
	)
	return dealsCmd
}

func newDealsListCmd(client dealsClient) *cobra.Command {
	var filters domain.DealFilters
	var stage, outputFormat string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters.Stage = domain.Stage(stage)
			if stage != "" && stage != "all" {
				parsed, err := domain.ParseStage(stage)
				if err != nil {
					return err
				}
				filters.Stage = parsed
			}
			printer, err := resolveFormatter(outputFormat)
			if err != nil {
				return err
			}
			deals, err := client.ListDeals(commandContext(cmd), filters)
			if err != nil {
				return fmt.Errorf("deals list: %w", err)
			}
			if len(deals) == 0 && !structured(outputFormat) {
				colors.Info("No deals")
				return nil
			}
			return printer.FormatDeals(deals, dealsOutputWriter)
		},
	}
	listCmd.Flags().StringVar(&stage, "stage", "", "Filter by stage")
	listCmd.Flags().StringVar(&filters.Owner, "owner", "", "Filter by owner")
	listCmd.Flags().StringVar(&filters.Search, "search", "", "Search deal titles")
	registerFormatFlag(listCmd, &outputFormat)
	return listCmd
}

// dealDetail is the structured output of "deals show".
type dealDetail struct {
	Deal     domain.Deal      `json:"deal" yaml:"deal"`
	Payments []domain.Payment `json:"payments" yaml:"payments"`
}

func newDealsShowCmd(client dealsClient) *cobra.Command {
	var outputFormat string

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a deal and its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := resolveFormatter(outputFormat)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			deal, err := client.GetDeal(ctx, args[0])
			if err != nil {
				return fmt.Errorf("deals show: %w", err)
			}
			pays, err := client.Payments(ctx, deal.ID)
			if err != nil {
				return fmt.Errorf("deals show: %w", err)
			}

			if structured(outputFormat) {
				if pays == nil {
					pays = []domain.Payment{}
				}
				return format.Encode(dealsOutputWriter, format.FormatterType(outputFormat), dealDetail{Deal: deal, Payments: pays})
			}
			if err := printer.FormatDeals([]domain.Deal{deal}, dealsOutputWriter); err != nil {
				return err
			}
			if len(pays) == 0 {
				_, err := fmt.Fprintln(dealsOutputWriter, "\nNo payments")
				return err
			}
			fmt.Fprintln(dealsOutputWriter)
			return format.FormatPayments(dealsOutputWriter, pays, config.Get("default_currency", "RUB"))
		},
	}
	registerFormatFlag(showCmd, &outputFormat)
	return showCmd
}

func newDealsMoveCmd(client dealsClient) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a deal to another pipeline stage",
		Long: `Move a deal to another pipeline stage.

The change is applied to the cached views immediately and rolled back if the
CRM rejects it.

USAGE:
    crmsync deals move <id> <stage>

STAGES:
    prospecting, qualification, proposal, negotiation, closed_won, closed_lost`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			deal, err := client.MoveDeal(commandContext(cmd), args[0], stage, nil)
			if err != nil {
				return fmt.Errorf("deals move: %w", err)
			}
			colors.Success(fmt.Sprintf("Deal %s moved to %s", deal.ID, deal.Stage))
			return nil
		},
	}
}

func newDealsMetricsCmd(client dealsClient) *cobra.Command {
	var outputFormat string

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show deal counts and value per stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := client.StageMetrics(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("deals metrics: %w", err)
			}
			if structured(outputFormat) {
				if metrics == nil {
					metrics = []domain.StageMetric{}
				}
				return format.Encode(dealsOutputWriter, format.FormatterType(outputFormat), metrics)
			}
			return format.FormatStageMetrics(dealsOutputWriter, metrics, config.Get("default_currency", "RUB"))
		},
	}
	metricsCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json, yaml")
	return metricsCmd
}
