// Package metrics exposes Prometheus counters for taxiid.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/opentaxii-core/internal/events"
	"github.com/smazurov/opentaxii-core/internal/logging"
)

const namespace = "taxii"

var (
	logLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "lines_total",
		Help:      "Rendered log lines by level",
	}, []string{"level"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts by result",
	}, []string{"result"})

	pluginLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plugin",
		Name:      "loads_total",
		Help:      "Plugin instantiations by class and result",
	}, []string{"class", "result"})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "config",
		Name:      "reloads_total",
		Help:      "Configuration reloads by result",
	}, []string{"result"})
)

// Handler returns the Prometheus metrics HTTP handler for the default
// registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// LogSink counts every line the logging pipeline emits. Attach it with
// logging.Context.AddSink.
type LogSink struct{}

// Emit implements logging.Sink.
func (LogSink) Emit(level slog.Level, _ string) error {
	logLines.WithLabelValues(logging.LevelName(level)).Inc()
	return nil
}

// Subscribe wires bus events to the counters and returns a function that
// removes the subscriptions.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.AuthAttemptEvent) {
			authAttempts.WithLabelValues(e.Result).Inc()
		}),
		bus.Subscribe(func(e events.PluginLoadedEvent) {
			pluginLoads.WithLabelValues(e.Class, result(e.Err)).Inc()
		}),
		bus.Subscribe(func(e events.ConfigReloadedEvent) {
			configReloads.WithLabelValues(result(e.Err)).Inc()
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func result(errText string) string {
	if errText != "" {
		return "error"
	}
	return "ok"
}
