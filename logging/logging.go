// api/logging/logging.go
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

func init() {
	SetLevel(slog.LevelInfo)
}

// SetLevel replaces the default logger with a tint handler at level.
func SetLevel(level slog.Level) {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		AddSource:  true,
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	})))
}

// SetLevelWithStr accepts debug, info, warn or error; anything else means info.
func SetLevelWithStr(levelStr string) {
	SetLevel(ParseLevel(levelStr))
}

func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
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
