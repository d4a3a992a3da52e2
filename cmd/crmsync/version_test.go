package main

import (
	"encoding/json"
	"testing"

	"github.com/cristianoliveira/crmsync/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintVersion(t *testing.T) {
	origVersion, origCommit := version.Version, version.Commit
	defer func() {
		version.Version, version.Commit = origVersion, origCommit
	}()

	tests := []struct {
		name     string
		ver      string
		commit   string
		expected string
	}{
		{name: "development build", ver: "development", commit: "unknown", expected: "crmsync version development\n"},
		{name: "release with commit", ver: "1.0.0", commit: "abc1234", expected: "crmsync version 1.0.0+abc1234\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := swapWriter(t, &versionOutputWriter)
			version.Version = tt.ver
			version.Commit = tt.commit
			PrintVersion()
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestVersionCmdJSON(t *testing.T) {
	buf := swapWriter(t, &versionOutputWriter)

	_, err := runCommand(t, NewVersionCmd(), "--format", "json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, version.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestVersionCmdRejectsUnknownFormat(t *testing.T) {
	_, err := runCommand(t, NewVersionCmd(), "--format", "table")
	assert.Error(t, err)
}
