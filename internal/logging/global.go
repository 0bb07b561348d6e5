package logging

import "log/slog"

var defaultContext = NewContext()

// Default returns the process-wide context used by GetLogger.
func Default() *Context {
	return defaultContext
}

// Configure configures the default context and installs its root logger as
// the slog default, so package-level slog calls go through the same chain.
func Configure(levels map[string]string, plain bool) error {
	err := defaultContext.Configure(levels, plain)
	slog.SetDefault(defaultContext.Logger(""))
	return err
}

// GetLogger returns the logger for the specified module from the default
// context, creating it if needed.
func GetLogger(module string) *slog.Logger {
	return defaultContext.Logger(module)
}

// Reset removes every sink and threshold from the default context.
func Reset() {
	defaultContext.Reset()
}
