// Package logging builds the structured logger shared by the RPC core.
// Session secrets are redacted by attribute key regardless of level.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	LevelOff   = "off"
	LevelInfo  = "info"
	LevelDebug = "debug"

	redacted = "[REDACTED]"
	// MaxPayloadChars bounds how much of an RPC payload debug logs carry.
	MaxPayloadChars = 500
)

var secretKeyFragments = []string{"cookie", "csrf", "token", "session_id", "secret", "password"}

type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a logger for the configured verbosity. LevelOff discards every
// record.
func New(cfg Config) (*slog.Logger, error) {
	level, enabled, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if !enabled || cfg.Output == nil {
		return Discard(), nil
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	return slog.New(handler).With("component", "nblm"), nil
}

func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard lets constructors accept a nil logger.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

// Truncate shortens s to MaxPayloadChars for debug output.
func Truncate(s string) string {
	if len(s) <= MaxPayloadChars {
		return s
	}
	return fmt.Sprintf("%s...(%d chars)", s[:MaxPayloadChars], len(s))
}

func parseLevel(raw string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", LevelOff:
		return slog.LevelError, false, nil
	case LevelInfo:
		return slog.LevelInfo, true, nil
	case LevelDebug:
		return slog.LevelDebug, true, nil
	default:
		return 0, false, fmt.Errorf("unknown log level %q", raw)
	}
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if key == "at" {
		return slog.String(a.Key, redacted)
	}
	for _, fragment := range secretKeyFragments {
		if strings.Contains(key, fragment) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}
