// Package logging configures the process-wide slog logger and carries
// request ids through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how records are written.
type Config struct {
	Level      string `json:"level,omitempty"`  // debug, info, warn, error
	Format     string `json:"format,omitempty"` // json, text
	Output     string `json:"output,omitempty"` // stdout, file, both
	FilePath   string `json:"file_path,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// DefaultConfig logs text records to stdout.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "text",
		Output:     "stdout",
		FilePath:   "logs/proxy.log",
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// Init builds a logger from cfg and installs it as the slog default.
func Init(cfg Config) (*slog.Logger, error) {
	w, err := writerFor(cfg)
	if err != nil {
		return nil, err
	}
	logger := New(w, cfg)
	slog.SetDefault(logger)
	return logger, nil
}

// New builds a logger writing to w using the level and format from cfg.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func writerFor(cfg Config) (io.Writer, error) {
	output := strings.ToLower(strings.TrimSpace(cfg.Output))
	if output == "" {
		output = "stdout"
	}

	var writers []io.Writer
	if output == "stdout" || output == "both" {
		writers = append(writers, os.Stdout)
	}
	if output == "file" || output == "both" {
		if strings.TrimSpace(cfg.FilePath) == "" {
			return nil, fmt.Errorf("log output %q requires file_path", output)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	switch len(writers) {
	case 0:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextWithRequestID stores id on ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by ContextWithRequestID, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns base annotated with the request id carried by ctx.
// A nil base falls back to slog.Default().
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := RequestID(ctx); id != "" {
		return base.With("request_id", id)
	}
	return base
}
