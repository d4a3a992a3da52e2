package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
	Version, Commit, Date = version, commit, date
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		commit   string
		expected string
	}{
		{name: "development build", version: "development", commit: "unknown", expected: "development"},
		{name: "release with commit", version: "1.0.0", commit: "abc1234", expected: "1.0.0+abc1234"},
		{name: "empty commit", version: "0.5.0", commit: "", expected: "0.5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.version, tt.commit, "")
			assert.Equal(t, tt.expected, String())
		})
	}
}

func TestGet(t *testing.T) {
	withBuild(t, "1.2.0", "unknown", "2026-01-10")

	info := Get()
	assert.Equal(t, "1.2.0", info.Version)
	assert.Empty(t, info.Commit)
	assert.Equal(t, "2026-01-10", info.Date)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}
