package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, point, name, body string, mode os.FileMode) string {
	t.Helper()
	pointDir := filepath.Join(dir, point)
	require.NoError(t, os.MkdirAll(pointDir, 0o755))
	path := filepath.Join(pointDir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode))
	return path
}

func TestRunWithoutScripts(t *testing.T) {
	r := New(Options{Dir: t.TempDir()})
	assert.NoError(t, r.Run(context.Background(), PointNotification, nil))

	r = New(Options{})
	assert.NoError(t, r.Run(context.Background(), PointNotification, nil))
}

func TestScriptsSkipsNonExecutableAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, PointPostSync, "20-second", "exit 0", 0o755)
	writeScript(t, dir, PointPostSync, "10-first", "exit 0", 0o755)
	writeScript(t, dir, PointPostSync, "README", "not a hook", 0o644)

	scripts := New(Options{Dir: dir}).Scripts(PointPostSync)
	require.Len(t, scripts, 2)
	assert.Equal(t, "10-first", filepath.Base(scripts[0]))
	assert.Equal(t, "20-second", filepath.Base(scripts[1]))
}

func TestRunPassesEnvironment(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.txt")
	writeScript(t, dir, PointNotification, "record",
		`echo "$HOOK_POINT $CRMSYNC_NOTIFICATION_ID $CRMSYNC_SEVERITY" > "`+out+`"`, 0o755)

	r := New(Options{Dir: dir})
	err := r.Run(context.Background(), PointNotification, map[string]string{
		"CRMSYNC_NOTIFICATION_ID": "n1",
		"CRMSYNC_SEVERITY":        "warning",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "on-notification n1 warning", strings.TrimSpace(string(data)))
}

func TestFailureModes(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(t.TempDir(), "ran")
	writeScript(t, dir, PointPostSync, "10-fail", "echo boom; exit 3", 0o755)
	writeScript(t, dir, PointPostSync, "20-after", `touch "`+marker+`"`, 0o755)

	err := New(Options{Dir: dir, FailureMode: FailureAbort}).Run(context.Background(), PointPostSync, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NoFileExists(t, marker, "abort stops at the first failure")

	err = New(Options{Dir: dir, FailureMode: FailureWarn}).Run(context.Background(), PointPostSync, nil)
	require.NoError(t, err)
	assert.FileExists(t, marker)
}

func TestAsyncHooks(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(t.TempDir(), "async")
	writeScript(t, dir, PointFeedItem, "slow", `sleep 0.1; touch "`+marker+`"`, 0o755)

	r := New(Options{Dir: dir, Async: true, AsyncTimeout: 5 * time.Second})
	require.NoError(t, r.Run(context.Background(), PointFeedItem, nil))
	r.Wait()

	assert.Equal(t, 0, r.Pending())
	assert.FileExists(t, marker)
}

func TestAsyncLimit(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, PointFeedItem, "a", "sleep 0.2", 0o755)
	writeScript(t, dir, PointFeedItem, "b", "sleep 0.2", 0o755)

	r := New(Options{Dir: dir, Async: true, MaxAsync: 1})
	require.NoError(t, r.Run(context.Background(), PointFeedItem, nil))
	assert.Equal(t, 1, r.Pending())
	r.Wait()
	assert.Equal(t, 0, r.Pending())
}
