package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/ouija/woocommerce-gateway-payza/internal/config"
)

// NewLogger builds the process-wide slog logger. Gateway debug mode forces
// the debug level so raw IPN traffic becomes visible in the logs.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "payza-gateway", "env", cfg.Env)
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
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
