// Package logging provides structured logging through an ordered processor
// chain with per-logger thresholds.
//
// # Overview
//
// Loggers are plain [log/slog] loggers backed by a [Context]. Each record is
// turned into an [Event] and passed through a fixed chain before it is
// rendered and written:
//
//	FilterByLevel                 drop records below the logger threshold
//	AddLoggerName                 "logger" field ("root" for the root logger)
//	AddLogLevel                   "level" field (debug, info, warning, ...)
//	PositionalArgumentsFormatter  apply Args(...) to the message
//	TimeStamper                   "timestamp" field, ISO-8601 UTC
//	StackInfoRenderer             Stack() becomes a "stack" field
//	FormatExcInfo                 Exc(err) becomes an "exception" field
//	renderer                      PlainRenderer or JSONRenderer
//
// # Usage
//
// Configure once at startup. Calling it again replaces the previous setup
// completely, which is what a config hot-reload does:
//
//	err := logging.Configure(map[string]string{
//		"root":   "info",
//		"plugin": "debug",
//	}, true)
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("api")
//	logger.Info("request.denied", "path", path)
//	logger.Info("loaded %d backends", logging.Args(n))
//
// # Logger hierarchy
//
// Names are dotted. A logger without its own level uses the closest
// ancestor's ("api.auth" falls back to "api", then to root), and records go
// to the sinks of the logger and of every ancestor. Configure attaches a
// single stdout sink to root; extra sinks (journal, ring buffer, metrics)
// are added with [Context.AddSink] after each Configure.
//
// # Plain format
//
//	2024-05-01T10:00:00.000000Z [api] info: request.denied {path=/x, event=request.denied, logger=api, level=info, timestamp=2024-05-01T10:00:00.000000Z}
package logging
