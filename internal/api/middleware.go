package api

import (
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/opentaxii-core/internal/logging"
)

// HTTPLoggingMiddleware logs one line per request on the "api.http" logger,
// picking the level from the response status.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("api.http")

	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if query := ctx.URL().RawQuery; query != "" {
		attrs = append(attrs, slog.String("query", query))
	}

	next(ctx)

	status := ctx.Status()
	attrs = append(attrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	level := logging.LevelInfo
	switch {
	case status >= 500:
		level = logging.LevelError
	case status >= 400:
		level = logging.LevelWarning
	}
	logger.LogAttrs(ctx.Context(), level, "http.request", attrs...)
}
