package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cristianoliveira/crmsync/internal/logging"
	"github.com/cristianoliveira/crmsync/internal/ports"
	"github.com/cristianoliveira/crmsync/internal/storage/sqlite"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDeps(t *testing.T, journal func() (*sqlite.Journal, error), backend func(logging.Logger) (ports.Backend, error)) {
	t.Helper()
	origJournal, origBackend := newJournal, newBackend
	newJournal, newBackend = journal, backend
	t.Cleanup(func() { newJournal, newBackend = origJournal, origBackend })
}

func tempJournal(t *testing.T) func() (*sqlite.Journal, error) {
	return func() (*sqlite.Journal, error) {
		return sqlite.Open(filepath.Join(t.TempDir(), "crmsync.db"))
	}
}

func offline(logging.Logger) (ports.Backend, error) { return nil, nil }

func TestBuildCLIDepsReturnsJournalError(t *testing.T) {
	stubDeps(t, func() (*sqlite.Journal, error) { return nil, errors.New("disk full") }, offline)

	_, err := buildCLIDeps()
	assert.ErrorContains(t, err, "disk full")
}

func TestBuildCLIDepsReturnsBackendError(t *testing.T) {
	stubDeps(t, tempJournal(t), func(logging.Logger) (ports.Backend, error) {
		return nil, errors.New("bad url")
	})

	_, err := buildCLIDeps()
	assert.ErrorContains(t, err, "bad url")
}

func TestBuildCLIDepsSuccess(t *testing.T) {
	stubDeps(t, tempJournal(t), offline)

	deps, err := buildCLIDeps()
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.core)
	assert.NotNil(t, deps.journal)
	assert.Equal(t, "RUB", deps.bridge.Options.DefaultCurrency)
}

func TestRegisterCommandsAddsCommands(t *testing.T) {
	stubDeps(t, tempJournal(t), offline)
	deps, err := buildCLIDeps()
	require.NoError(t, err)
	defer deps.Close()

	root := &cobra.Command{Use: "root"}
	registerCommands(root, deps)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"watch", "deals", "feed", "channels", "classify", "version"} {
		assert.True(t, names[name], "expected command %q to be registered", name)
	}
}

func TestRegisterCommandsPanicsWithoutCore(t *testing.T) {
	assert.Panics(t, func() { registerCommands(&cobra.Command{Use: "root"}, cliDeps{}) })
}
