// Package logging provides structured logging for crmsync.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cristianoliveira/crmsync/internal/config"
)

// Config controls where and how much crmsync logs.
type Config struct {
	Enabled  bool   // JSON file log
	Console  bool   // human readable copy on stderr
	Level    string // debug, info, warn or error
	MaxFiles int    // log files kept by rotation
	Command  string // binary name recorded on every line
	PID      int
}

// DefaultConfig returns logging disabled at info level.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		MaxFiles: 10,
		Command:  filepath.Base(os.Args[0]),
		PID:      os.Getpid(),
	}
}

// FromGlobalConfig reads the logging_* keys. debug=true forces the debug level.
func FromGlobalConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = config.GetBool("logging_enabled", cfg.Enabled)
	cfg.Console = config.GetBool("logging_console", cfg.Console)
	cfg.Level = config.Get("logging_level", cfg.Level)
	cfg.MaxFiles = config.GetInt("logging_max_files", cfg.MaxFiles)
	if config.GetBool("debug", false) {
		cfg.Level = "debug"
	}
	return cfg
}

// LogDir returns the first writable log directory among {state_dir}/logs,
// the XDG state home and the system temp dir.
func LogDir() (string, error) {
	var candidates []string
	if stateDir := config.Get("state_dir", ""); stateDir != "" {
		candidates = append(candidates, filepath.Join(stateDir, "logs"))
	}
	candidates = append(candidates,
		filepath.Join(xdg.StateHome, "crmsync", "logs"),
		filepath.Join(os.TempDir(), "crmsync", "logs"),
	)
	for _, dir := range candidates {
		if writable(dir) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no writable log directory in %v", candidates)
}

func writable(dir string) bool {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
