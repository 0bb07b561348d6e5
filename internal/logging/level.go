package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Severity levels. Debug through Error are the slog levels; Critical sits
// above Error and NotSet below everything.
const (
	LevelNotSet   slog.Level = -8
	LevelDebug    slog.Level = slog.LevelDebug
	LevelInfo     slog.Level = slog.LevelInfo
	LevelWarning  slog.Level = slog.LevelWarn
	LevelError    slog.Level = slog.LevelError
	LevelCritical slog.Level = 12
)

// defaultRootLevel is the root threshold after a reset.
const defaultRootLevel = LevelInfo

// ErrInvalidLevel is matched by errors.Is for every *InvalidLevelError.
var ErrInvalidLevel = errors.New("invalid log level")

// InvalidLevelError reports an unrecognised severity name.
type InvalidLevelError struct {
	Logger string
	Level  string
}

func (e *InvalidLevelError) Error() string {
	if e.Logger == "" {
		return fmt.Sprintf("invalid log level %q for root logger", e.Level)
	}
	return fmt.Sprintf("invalid log level %q for logger %q", e.Level, e.Logger)
}

// Is reports whether target is ErrInvalidLevel.
func (e *InvalidLevelError) Is(target error) bool {
	return target == ErrInvalidLevel
}

// ParseLevel converts a case-insensitive severity name to a level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "notset":
		return LevelNotSet, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return 0, &InvalidLevelError{Level: name}
	}
}

// LevelName returns the lowercase name attached to events by AddLogLevel.
func LevelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "critical"
	case level >= LevelError:
		return "error"
	case level >= LevelWarning:
		return "warning"
	case level >= LevelInfo:
		return "info"
	case level >= LevelDebug:
		return "debug"
	default:
		return "notset"
	}
}

// loggerKey maps a logger name to its registry key. Names are
// case-insensitive and "root" in any case denotes the root logger.
func loggerKey(name string) string {
	if strings.EqualFold(name, "root") {
		return ""
	}
	return strings.ToLower(name)
}
