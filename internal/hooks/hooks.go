// Package hooks runs user scripts when crmsync events happen.
//
// Scripts live in <dir>/<point>/ and run in name order. Every script gets the
// event as CRMSYNC_* environment variables plus HOOK_POINT and
// HOOK_TIMESTAMP.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cristianoliveira/crmsync/internal/config"
	"github.com/cristianoliveira/crmsync/internal/logging"
)

// Hook points.
const (
	PointNotification = "on-notification"
	PointFeedItem     = "on-feed-item"
	PointPostSync     = "post-sync"
)

// FailureMode decides what a failing script does to the run.
type FailureMode string

const (
	FailureAbort  FailureMode = "abort"
	FailureWarn   FailureMode = "warn"
	FailureIgnore FailureMode = "ignore"
)

// ErrTooManyPending is logged when the async limit drops a script.
var ErrTooManyPending = errors.New("too many async hooks pending")

// Options configures a Runner.
type Options struct {
	Dir          string
	FailureMode  FailureMode
	Async        bool
	AsyncTimeout time.Duration
	MaxAsync     int
	Logger       logging.Logger
}

// OptionsFromConfig reads the hooks_* configuration keys.
func OptionsFromConfig() Options {
	dir := config.Get("hooks_dir", "")
	if dir == "" {
		dir = filepath.Join(config.Get("config_dir", ""), "hooks")
	}
	return Options{
		Dir:          dir,
		FailureMode:  FailureMode(config.Get("hooks_failure_mode", string(FailureWarn))),
		Async:        config.GetBool("hooks_async", false),
		AsyncTimeout: time.Duration(config.GetInt("hooks_async_timeout_seconds", 30)) * time.Second,
		MaxAsync:     config.GetInt("hooks_max_async", 10),
		Logger:       logging.GetGlobal(),
	}
}

// Runner executes hook scripts.
type Runner struct {
	opts Options

	mu      sync.Mutex
	pending int
	wg      sync.WaitGroup
}

// New creates a Runner. Zero options get defaults.
func New(opts Options) *Runner {
	if opts.FailureMode == "" {
		opts.FailureMode = FailureWarn
	}
	if opts.AsyncTimeout <= 0 {
		opts.AsyncTimeout = 30 * time.Second
	}
	if opts.MaxAsync <= 0 {
		opts.MaxAsync = 10
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoop()
	}
	return &Runner{opts: opts}
}

// Scripts returns the executable scripts of a hook point in run order.
func (r *Runner) Scripts(point string) []string {
	if r.opts.Dir == "" {
		return nil
	}
	dir := filepath.Join(r.opts.Dir, point)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Mode()&0o111 == 0 {
			continue
		}
		scripts = append(scripts, filepath.Join(dir, e.Name()))
	}
	sort.Strings(scripts)
	return scripts
}

// Run executes the scripts of point with env added to the process
// environment. In abort mode the first failing synchronous script stops the
// run and its error is returned; otherwise failures are logged.
func (r *Runner) Run(ctx context.Context, point string, env map[string]string) error {
	scripts := r.Scripts(point)
	if len(scripts) == 0 {
		return nil
	}

	environ := os.Environ()
	environ = append(environ,
		"HOOK_POINT="+point,
		"HOOK_TIMESTAMP="+time.Now().UTC().Format(time.RFC3339),
	)
	if exe, err := os.Executable(); err == nil {
		environ = append(environ, "CRMSYNC_BINARY="+exe)
	}
	for k, v := range env {
		environ = append(environ, k+"="+v)
	}

	r.opts.Logger.Debug("running hooks", "point", point, "scripts", len(scripts))
	for _, script := range scripts {
		if r.opts.Async {
			r.startAsync(script, environ)
			continue
		}
		if err := r.runSync(ctx, script, environ); err != nil {
			if r.opts.FailureMode == FailureAbort {
				return err
			}
			if r.opts.FailureMode == FailureWarn {
				r.opts.Logger.Warn("hook failed", "point", point, "script", filepath.Base(script), "error", err)
			}
		}
	}
	return nil
}

func (r *Runner) runSync(ctx context.Context, script string, environ []string) error {
	start := time.Now()
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = environ
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook %s: %w: %s", filepath.Base(script), err, output)
	}
	r.opts.Logger.Debug("hook completed", "script", filepath.Base(script), "duration", time.Since(start))
	return nil
}

func (r *Runner) startAsync(script string, environ []string) {
	name := filepath.Base(script)
	r.mu.Lock()
	if r.pending >= r.opts.MaxAsync {
		r.mu.Unlock()
		r.opts.Logger.Warn("hook skipped", "script", name, "error", ErrTooManyPending, "max", r.opts.MaxAsync)
		return
	}
	r.pending++
	r.wg.Add(1)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.AsyncTimeout)
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = environ
	if err := cmd.Start(); err != nil {
		cancel()
		r.done()
		if r.opts.FailureMode != FailureIgnore {
			r.opts.Logger.Warn("async hook failed to start", "script", name, "error", err)
		}
		return
	}

	go func() {
		defer r.done()
		defer cancel()
		err := cmd.Wait()
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			r.opts.Logger.Warn("async hook timed out", "script", name, "timeout", r.opts.AsyncTimeout)
		case err != nil && r.opts.FailureMode != FailureIgnore:
			r.opts.Logger.Warn("async hook failed", "script", name, "error", err)
		}
	}()
}

func (r *Runner) done() {
	r.mu.Lock()
	r.pending--
	r.mu.Unlock()
	r.wg.Done()
}

// Pending returns the number of async scripts still running.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Wait blocks until every async script has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
