package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

var defaultLogger *slog.Logger

// Options mirrors the logging section of the service config.
type Options struct {
	Environment string
	Level       string
	Format      string
	Output      string
	FilePath    string
	MaxSize     int
	MaxBackups  int
	MaxAge      int
	Compress    bool
}

func Init(env string) {
	if err := Setup(Options{Environment: env}); err != nil {
		defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(defaultLogger)
	}
}

// Setup builds the process-wide logger. Production and non-terminal stdout get
// JSON; interactive development gets text.
func Setup(opts Options) error {
	w, err := writer(opts)
	if err != nil {
		return err
	}

	level := parseLevel(opts.Level, opts.Environment)
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if useJSON(opts) {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return nil
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

func writer(opts Options) (io.Writer, error) {
	switch opts.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "file":
		if opts.FilePath == "" {
			return nil, fmt.Errorf("file_path is required when output is 'file'")
		}
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		return &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
			LocalTime:  true,
		}, nil
	default:
		return nil, fmt.Errorf("unknown output: %s", opts.Output)
	}
}

func useJSON(opts Options) bool {
	switch opts.Format {
	case "json":
		return true
	case "text":
		return false
	}
	if opts.Environment == "production" || opts.Output == "file" {
		return true
	}
	fd := os.Stdout.Fd()
	if opts.Output == "stderr" {
		fd = os.Stderr.Fd()
	}
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

func parseLevel(level, env string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "production" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
