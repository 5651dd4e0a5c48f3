package slog

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace sits below Debug and is used by Observer.Trace.
const LevelTrace = slog.LevelDebug - 4

var levelNames = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"":        slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLogLevel maps a case-insensitive level name to a slog.Level. An empty
// name means info.
func ParseLogLevel(name string) (slog.Level, error) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// LogLevelString names level, including LevelTrace which slog renders as
// DEBUG-4.
func LogLevelString(level slog.Level) string {
	if level == LevelTrace {
		return "TRACE"
	}
	return level.String()
}
