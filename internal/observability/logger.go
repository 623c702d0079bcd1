package observability

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/couchcryptid/flood-wave-graph/internal/config"
)

// Rotation settings for file output.
const (
	logMaxSizeMB  = 100
	logMaxBackups = 5
	logMaxAgeDays = 30
)

// NewLogger builds the process logger from LOG_LEVEL, LOG_FORMAT and
// LOG_OUTPUT. File output rotates through lumberjack; if the log directory
// cannot be created the logger falls back to stdout.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(newHandler(logWriter(cfg), cfg.LogLevel, cfg.LogFormat))
}

func logWriter(cfg *config.Config) io.Writer {
	switch cfg.LogOutput {
	case "stderr":
		return os.Stderr
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
	default:
		return os.Stdout
	}
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
