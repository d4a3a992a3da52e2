package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/cristianoliveira/crmsync/internal/colors"
	"github.com/spf13/cobra"
)

// runCommand executes c with args and returns what colors printed.
func runCommand(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var console bytes.Buffer
	restore := colors.SetOutput(&console, &console)
	defer restore()

	c.SetArgs(args)
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	err := c.Execute()
	return console.String(), err
}

// swapWriter points *w at a fresh buffer for the duration of the test.
func swapWriter(t *testing.T, w *io.Writer) *bytes.Buffer {
	t.Helper()
	orig := *w
	var buf bytes.Buffer
	*w = &buf
	t.Cleanup(func() { *w = orig })
	return &buf
}

type hookCall struct {
	point string
	env   map[string]string
}

// fakeHooks records hook runs.
type fakeHooks struct {
	calls []hookCall
	err   error
}

func (h *fakeHooks) Run(_ context.Context, point string, env map[string]string) error {
	h.calls = append(h.calls, hookCall{point: point, env: env})
	return h.err
}
