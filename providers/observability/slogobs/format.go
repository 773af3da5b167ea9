package slogobs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler used by [New].
type Format string

const (
	// FormatText emits logfmt-style key=value lines.
	FormatText Format = "text"
	// FormatJSON emits one JSON object per record.
	FormatJSON Format = "json"
)

// LevelTrace sits below debug and is filtered out unless explicitly enabled.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat maps a case-insensitive name to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// ParseLevel maps TRACE, DEBUG, INFO, WARN/WARNING and ERROR (any case) to a
// slog level. Unknown values fall back to INFO and report an error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// FormatFromEnv reads LOG_FORMAT.
func FormatFromEnv() Format {
	return ParseFormat(os.Getenv("LOG_FORMAT"))
}

// LevelFromEnv reads LOG_LEVEL, falling back to INFO.
func LevelFromEnv() slog.Level {
	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using INFO\n", err)
	}
	return level
}

// NewHandler builds the slog handler for format writing to w.
func NewHandler(format Format, level slog.Level, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
