package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/opentaxii-core/internal/api"
	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/config"
	"github.com/smazurov/opentaxii-core/internal/events"
	"github.com/smazurov/opentaxii-core/internal/logging"
	"github.com/smazurov/opentaxii-core/internal/metrics"
	"github.com/smazurov/opentaxii-core/internal/plugin"
)

const journalIdentifier = "taxiid"

// snapshot is one consistent read of the config file.
type snapshot struct {
	opts     config.Options
	settings *config.Settings
}

// loadSnapshot returns a loader that re-reads path on top of base. Values
// given as CLI flags at startup are overridden by the file on reload.
func loadSnapshot(base config.Options) func(path string) (snapshot, error) {
	return func(path string) (snapshot, error) {
		opts := base
		opts.Config = path
		if err := config.LoadConfig(&opts, nil); err != nil {
			return snapshot{}, err
		}
		settings, err := config.LoadSettings(path)
		if err != nil {
			return snapshot{}, err
		}
		return snapshot{opts: opts, settings: settings}, nil
	}
}

type app struct {
	bus    *events.Bus
	logs   *logging.BufferSink
	server *api.Server
	logger *slog.Logger

	mu    sync.Mutex
	authn auth.Authenticator
}

func newApp(ctx context.Context, opts *config.Options, settings *config.Settings) (*app, error) {
	a := &app{
		bus:  events.New(),
		logs: logging.NewBufferSink(opts.LogBufferSize),
	}
	metrics.Subscribe(a.bus)

	if err := a.configureLogging(opts, settings); err != nil {
		return nil, err
	}
	a.logger = logging.GetLogger("taxiid")

	authn, err := a.loadAuthenticator(ctx, settings.AuthAPI)
	if err != nil {
		return nil, err
	}
	a.authn = authn

	a.server = api.NewServer(&api.Options{
		Domain:            opts.Domain,
		Services:          settings.Services,
		Authenticator:     authn,
		Logs:              a.logs,
		Bus:               a.bus,
		PrometheusHandler: metrics.Handler(),
	})
	return a, nil
}

// configureLogging rebuilds the logging setup and re-attaches the sinks
// that Configure removes. The sinks are attached even when a level is
// invalid, so the error itself gets logged.
func (a *app) configureLogging(opts *config.Options, settings *config.Settings) error {
	err := logging.Configure(settings.Logging.Levels, opts.LoggingPlain)

	lc := logging.Default()
	lc.AddSink("", a.logs)
	lc.AddSink("", metrics.LogSink{})

	if opts.LoggingJournal {
		if logging.IsJournalAvailable() {
			lc.AddSink("", logging.NewJournalSink(journalIdentifier))
		} else {
			logging.GetLogger("taxiid").Warn("logging.journal.unavailable")
		}
	}
	return err
}

func (a *app) loadAuthenticator(ctx context.Context, cfg plugin.Config) (auth.Authenticator, error) {
	authn, err := plugin.LoadAs[auth.Authenticator](ctx, plugin.Default(), cfg)

	ev := events.PluginLoadedEvent{Class: cfg.Class, Timestamp: now()}
	if err != nil {
		ev.Err = err.Error()
	}
	a.bus.Publish(ev)
	return authn, err
}

// apply installs a reloaded snapshot. A backend that fails to load leaves
// the previous one in place.
func (a *app) apply(s snapshot) {
	ev := events.ConfigReloadedEvent{
		Path:      s.opts.Config,
		Levels:    s.settings.Logging.Levels,
		Timestamp: now(),
	}

	if err := a.configureLogging(&s.opts, s.settings); err != nil {
		a.logger.Error("config.reload.logging", "error", err)
		ev.Err = err.Error()
	}

	a.server.SetServices(s.opts.Domain, s.settings.Services)

	authn, err := a.loadAuthenticator(context.Background(), s.settings.AuthAPI)
	if err != nil {
		a.logger.Error("config.reload.auth", "class", s.settings.AuthAPI.Class, "error", err)
		if ev.Err == "" {
			ev.Err = err.Error()
		}
	} else {
		a.swapAuthenticator(authn)
	}

	a.bus.Publish(ev)
}

func (a *app) swapAuthenticator(authn auth.Authenticator) {
	a.mu.Lock()
	old := a.authn
	a.authn = authn
	a.mu.Unlock()

	a.server.SetAuthenticator(authn)
	closeAuthenticator(a.logger, old)
}

func (a *app) close() {
	a.mu.Lock()
	old := a.authn
	a.authn = nil
	a.mu.Unlock()
	closeAuthenticator(a.logger, old)
}

func closeAuthenticator(logger *slog.Logger, authn auth.Authenticator) {
	closer, ok := authn.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("auth.close.failed", "error", err)
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
