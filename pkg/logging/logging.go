/**
 * @description
 * This package builds the service's slog logger: colored tint output for
 * local development, plain JSON for anything deployed. Constructors receive
 * the returned logger; nothing outside main should touch slog's default.
 *
 * @dependencies
 * - log/slog, os, strings, time: Standard Go libraries.
 * - github.com/lmittmann/tint: Colorized slog handler for development.
 */
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a logger suited to the environment: tint (colored text) when
// env is "development", JSON otherwise. Level comes from the level string
// ("debug", "info", "warn", "error"; default info).
func New(env, level string) *slog.Logger {
	lvl := parseLevel(level)
	if strings.ToLower(env) == "development" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
