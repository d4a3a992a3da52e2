package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/crmsync/internal/colors"
	slogmulti "github.com/samber/slog-multi"
)

// Logger is the structured logging interface.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)
	// Info logs an informational message.
	Info(msg string, args ...any)
	// Warn logs a warning message.
	Warn(msg string, args ...any)
	// Error logs an error message.
	Error(msg string, args ...any)
	// With returns a new logger with additional key-value pairs.
	With(args ...any) Logger
	// Shutdown flushes any buffered logs and releases resources.
	Shutdown() error
}

// loggerImpl fans records out to charmbracelet/log handlers.
type loggerImpl struct {
	mu       sync.RWMutex
	slogger  *slog.Logger
	file     *os.File
	config   Config
	redactor *redactor
	fields   map[string]any
	path     string
}

// Init initializes a new Logger with the given configuration.
// With neither the file log nor the console log enabled a no-op logger is returned.
// The file log goes to LogDir() as JSON, after rotating old files.
func Init(cfg Config) (Logger, error) {
	if !cfg.Enabled && !cfg.Console {
		return noopLogger{}, nil
	}
	var (
		f    *os.File
		path string
	)
	if cfg.Enabled {
		logDir, err := LogDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine log directory: %w", err)
		}
		if err := rotate(logDir, cfg.MaxFiles); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
		fname := fmt.Sprintf("%s%s_PID%d_%s.log",
			logFilePrefix,
			time.Now().Format("20060102_150405"),
			cfg.PID,
			strings.ReplaceAll(cfg.Command, " ", "_"))
		path = filepath.Join(logDir, fname)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}
	var fileW, consoleW io.Writer
	if f != nil {
		fileW = f
	}
	if cfg.Console {
		consoleW = os.Stderr
	}
	l := NewWithWriters(cfg, fileW, consoleW).(*loggerImpl)
	l.file = f
	l.path = path
	return l, nil
}

// NewWithWriters builds a logger writing JSON records to fileW and
// human readable records to consoleW. Either writer may be nil.
func NewWithWriters(cfg Config, fileW, consoleW io.Writer) Logger {
	level := parseLevel(cfg.Level)
	var handlers []slog.Handler
	if fileW != nil {
		fileLogger := clog.NewWithOptions(fileW, clog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339Nano,
			Level:           level,
			Formatter:       clog.JSONFormatter,
		})
		handlers = append(handlers, fileLogger.With("pid", cfg.PID, "command", cfg.Command))
	}
	if consoleW != nil {
		handlers = append(handlers, clog.NewWithOptions(consoleW, clog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Level:           level,
			Prefix:          "crmsync",
		}))
	}
	if len(handlers) == 0 {
		return noopLogger{}
	}
	return &loggerImpl{
		slogger:  slog.New(slogmulti.Fanout(handlers...)),
		config:   cfg,
		redactor: newRedactor(),
		fields:   make(map[string]any),
	}
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *loggerImpl) Debug(msg string, args ...any) {
	l.log(clog.DebugLevel, msg, args)
}

func (l *loggerImpl) Info(msg string, args ...any) {
	l.log(clog.InfoLevel, msg, args)
}

func (l *loggerImpl) Warn(msg string, args ...any) {
	l.log(clog.WarnLevel, msg, args)
}

func (l *loggerImpl) Error(msg string, args ...any) {
	l.log(clog.ErrorLevel, msg, args)
}

// log writes a record with redaction applied to the key-value pairs.
// clog levels share their numeric values with slog levels.
func (l *loggerImpl) log(level clog.Level, msg string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	allArgs := make([]any, 0, len(l.fields)*2+len(args))
	for k, v := range l.fields {
		allArgs = append(allArgs, k, v)
	}
	allArgs = append(allArgs, args...)
	l.slogger.Log(context.Background(), slog.Level(level), msg, l.redactor.redact(allArgs)...)
}

func (l *loggerImpl) With(args ...any) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	newFields := make(map[string]any, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		newFields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			newFields[key] = args[i+1]
		}
	}
	return &loggerImpl{
		slogger:  l.slogger,
		file:     l.file,
		config:   l.config,
		redactor: l.redactor,
		fields:   newFields,
		path:     l.path,
	}
}

func (l *loggerImpl) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// filePath returns the full path to the log file.
func (l *loggerImpl) filePath() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger { return noopLogger{} }

// noopLogger is a logger that discards all output.
type noopLogger struct{}

func (n noopLogger) Debug(msg string, args ...any) {}
func (n noopLogger) Info(msg string, args ...any)  {}
func (n noopLogger) Warn(msg string, args ...any)  {}
func (n noopLogger) Error(msg string, args ...any) {}
func (n noopLogger) With(args ...any) Logger       { return n }
func (n noopLogger) Shutdown() error               { return nil }

var (
	globalLogger     Logger
	globalLoggerOnce sync.Once
	globalLoggerMu   sync.RWMutex
)

// InitGlobal initializes the global logger using configuration from the global config.
// It is safe to call multiple times; only the first call initializes the logger.
func InitGlobal() error {
	var err error
	globalLoggerOnce.Do(func() {
		var l Logger
		l, err = Init(FromGlobalConfig())
		if err != nil {
			return
		}
		globalLoggerMu.Lock()
		globalLogger = l
		globalLoggerMu.Unlock()
	})
	if err == nil {
		if l := GetGlobal(); l != (noopLogger{}) {
			colors.SetLogger(l)
		}
		if path := CurrentLogFile(); path != "" {
			colors.LogInfo("Logging to file:", path)
		}
	}
	return err
}

// GetGlobal returns the global logger, or a no-op logger if not initialized.
func GetGlobal() Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if globalLogger == nil {
		return noopLogger{}
	}
	return globalLogger
}

// Debug logs a debug message using the global logger.
func Debug(msg string, args ...any) {
	GetGlobal().Debug(msg, args...)
}

// Info logs an info message using the global logger.
func Info(msg string, args ...any) {
	GetGlobal().Info(msg, args...)
}

// Warn logs a warning message using the global logger.
func Warn(msg string, args ...any) {
	GetGlobal().Warn(msg, args...)
}

// Error logs an error message using the global logger.
func Error(msg string, args ...any) {
	GetGlobal().Error(msg, args...)
}

// With returns a new global logger with additional key-value pairs.
func With(args ...any) Logger {
	return GetGlobal().With(args...)
}

// ShutdownGlobal shuts down the global logger.
func ShutdownGlobal() error {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger != nil {
		return globalLogger.Shutdown()
	}
	return nil
}

// CurrentLogFile returns the path of the active log file, or "" when no file is written.
func CurrentLogFile() string {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if impl, ok := globalLogger.(*loggerImpl); ok {
		return impl.filePath()
	}
	return ""
}
