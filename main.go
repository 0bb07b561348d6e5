package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/opentaxii-core/cmd"
	"github.com/smazurov/opentaxii-core/internal/config"
	"github.com/smazurov/opentaxii-core/internal/events"

	_ "github.com/smazurov/opentaxii-core/internal/backends/memory"
	_ "github.com/smazurov/opentaxii-core/internal/backends/sqlite"
)

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Error("Failed to load config", "error", loadErr)
			os.Exit(1)
		}

		settings, err := config.LoadSettings(opts.Config)
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}

		a, err := newApp(context.Background(), opts, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "taxiid: %v\n", err)
			os.Exit(1)
		}

		watcher := config.NewWatcher(opts.Config, loadSnapshot(*opts), a.logger,
			config.WithErrorHandler[snapshot](func(err error) {
				a.bus.Publish(events.ConfigReloadedEvent{Path: opts.Config, Err: err.Error(), Timestamp: now()})
			}),
		)
		watcher.OnReload(a.apply)

		hooks.OnStart(func() {
			if startErr := watcher.Start(); startErr != nil {
				a.logger.Warn("config.watch.disabled", "path", opts.Config, "error", startErr)
			}

			ready := func() {
				if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
					a.logger.Debug("sd_notify.failed", "error", notifyErr)
				}
			}
			if startErr := a.server.Start(opts.Port, ready); startErr != nil {
				a.logger.Error("api.start.failed", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			a.logger.Info("taxiid.stopping")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			if stopErr := watcher.Stop(); stopErr != nil {
				a.logger.Warn("config.watch.stop.failed", "error", stopErr)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := a.server.Stop(ctx); stopErr != nil {
				a.logger.Error("api.stop.failed", "error", stopErr)
			}
			a.close()
		})
	})

	cli.Root().Use = "taxiid"
	cli.Root().Short = "TAXII service directory and auth front end"
	cli.Root().AddCommand(cmd.CreateValidateConfigCmd())
	cli.Root().AddCommand(cmd.CreatePluginsCmd())
	cli.Root().AddCommand(cmd.CreateSelfUpdateCmd())
	cli.Root().AddCommand(cmd.CreateAccountCmd())

	cli.Run()
}
