/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cristianoliveira/crmsync/internal/api"
	"github.com/cristianoliveira/crmsync/internal/api/mockserver"
	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/config"
	"github.com/cristianoliveira/crmsync/internal/core"
	"github.com/cristianoliveira/crmsync/internal/hooks"
	"github.com/cristianoliveira/crmsync/internal/logging"
	"github.com/cristianoliveira/crmsync/internal/ports"
	"github.com/cristianoliveira/crmsync/internal/storage/sqlite"
	"github.com/cristianoliveira/crmsync/internal/uistate"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// mockBaseURL is the API root served in process when api_base_url is "mock".
const mockBaseURL = "http://crmsync.mock"

// hookRunner runs user scripts for an event. *hooks.Runner implements it.
type hookRunner interface {
	Run(ctx context.Context, point string, env map[string]string) error
}

type cliDeps struct {
	core    *core.Core
	journal *sqlite.Journal
	hooks   *hooks.Runner
	bridge  bridge.Config
}

func (d cliDeps) Close() {
	if d.hooks != nil {
		d.hooks.Wait()
	}
	if d.core != nil {
		d.core.Close()
	}
	if d.journal != nil {
		_ = d.journal.Close()
	}
}

var newJournal = func() (*sqlite.Journal, error) {
	return sqlite.Open(config.Get("db_path", ""))
}

// newBackend returns the CRM API client, an in-process demo API in mock
// mode, or nil when running offline.
var newBackend = func(logger logging.Logger) (ports.Backend, error) {
	if config.GetBool("offline", false) {
		return nil, nil
	}
	opts := []api.Option{}
	baseURL := config.Get("api_base_url", "")
	if config.IsMock() {
		baseURL = mockBaseURL
		opts = append(opts, api.WithHTTPClient(&http.Client{Transport: mockserver.New().Transport()}))
	}
	opts = append(opts,
		api.WithTimeout(time.Duration(config.GetInt("api_timeout_seconds", 15))*time.Second),
		api.WithToken(config.Get("api_token", "")),
		api.WithLogger(logger),
		api.WithRequestIDs(uuid.NewString),
	)
	client, err := api.New(baseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return client, nil
}

func buildCLIDeps() (cliDeps, error) {
	logger := logging.GetGlobal()

	journal, err := newJournal()
	if err != nil {
		return cliDeps{}, fmt.Errorf("open journal: %w", err)
	}
	backend, err := newBackend(logger)
	if err != nil {
		_ = journal.Close()
		return cliDeps{}, err
	}

	currency := config.Get("default_currency", "RUB")
	c := core.New(backend, journal,
		core.WithLogger(logger),
		core.WithUIOptions(
			uistate.WithLogLimit(config.GetInt("notification_log_limit", 20)),
			uistate.WithHighlightDuration(time.Duration(config.GetInt("highlight_seconds", 3))*time.Second),
			uistate.WithDefaultCurrency(currency),
		),
	)

	return cliDeps{
		core:    c,
		journal: journal,
		hooks:   hooks.New(hooks.OptionsFromConfig()),
		bridge: bridge.Config{
			CRMURL:           config.Get("crm_stream_url", ""),
			NotificationsURL: config.Get("notifications_stream_url", ""),
			PaymentsURL:      config.Get("payments_stream_url", ""),
			Mock:             config.IsMock(),
			Options:          bridge.Options{DefaultCurrency: currency},
		},
	}, nil
}

func registerCommands(root *cobra.Command, deps cliDeps) {
	if deps.core == nil {
		panic(errors.New("registerCommands: core dependency cannot be nil"))
	}
	root.AddCommand(
		NewWatchCmd(deps.core, deps.bridge, deps.hooks),
		NewDealsCmd(deps.core),
		NewFeedCmd(deps.core, deps.journal, deps.hooks),
		NewChannelsCmd(deps.core),
		NewClassifyCmd(deps.bridge.Options),
		NewVersionCmd(),
	)
}
