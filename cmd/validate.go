// Package cmd holds the taxiid subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/smazurov/opentaxii-core/internal/address"
	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/config"
	"github.com/smazurov/opentaxii-core/internal/logging"
	"github.com/smazurov/opentaxii-core/internal/plugin"
	"github.com/spf13/cobra"
)

// CreateValidateConfigCmd returns the validate-config command. It loads the
// config file the same way the server does, instantiates the auth backend
// and prints the resolved service addresses.
func CreateValidateConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate-config",
		Short: "Check a configuration file without starting the server",
		RunE: func(c *cobra.Command, _ []string) error {
			path, _ := c.Flags().GetString("config")
			return ValidateConfig(c.Context(), path, c.OutOrStdout())
		},
	}
	c.Flags().StringP("config", "c", "taxii.toml", "Path to configuration file")
	return c
}

// ValidateConfig reports every problem found in the file at path and
// returns an error if there was at least one.
func ValidateConfig(ctx context.Context, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &config.Options{}
	config.ApplyDefaults(opts)
	opts.Config = path
	if err := config.LoadConfig(opts, nil); err != nil {
		return err
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}

	var problems []error

	names := make([]string, 0, len(settings.Logging.Levels))
	for name := range settings.Logging.Levels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		level := settings.Logging.Levels[name]
		if _, levelErr := logging.ParseLevel(level); levelErr != nil {
			problems = append(problems, &logging.InvalidLevelError{Logger: name, Level: level})
			continue
		}
		fmt.Fprintf(out, "level   %-20s %s\n", displayLogger(name), level)
	}

	authn, err := plugin.LoadAs[auth.Authenticator](ctx, plugin.Default(), settings.AuthAPI)
	if err != nil {
		problems = append(problems, err)
	} else {
		fmt.Fprintf(out, "auth    %s\n", settings.AuthAPI.Class)
		if closer, ok := authn.(io.Closer); ok {
			_ = closer.Close()
		}
	}

	services := make([]string, 0, len(settings.Services))
	for name := range settings.Services {
		services = append(services, name)
	}
	sort.Strings(services)
	for _, name := range services {
		resolved := address.Resolve(opts.Domain, settings.Services[name])
		fmt.Fprintf(out, "service %-20s %s\n", name, resolved.Full)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(out, "error   %v\n", p)
		}
		return fmt.Errorf("%s: %w", path, errors.Join(problems...))
	}
	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}

func displayLogger(name string) string {
	if name == "" {
		return "root"
	}
	return name
}
