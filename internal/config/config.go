// Package config loads taxiid configuration from a TOML file, environment
// variables and command-line flags, and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/opentaxii-core/internal/plugin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to the env tag of every option.
const EnvPrefix = "TAXII_"

// Options holds the scalar settings. Each field maps to a CLI flag, a
// dotted TOML path and an environment variable.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"taxii.toml"`

	Domain string `help:"Base address prepended to relative service paths" default:"http://localhost:9000" toml:"domain" env:"DOMAIN"`
	Port   string `help:"Port to listen on" short:"p" default:":9000" toml:"server.port" env:"SERVER_PORT"`

	LoggingPlain   bool `help:"Render logs as plain text instead of JSON" default:"false" toml:"logging.plain" env:"LOGGING_PLAIN"`
	LoggingJournal bool `help:"Also send logs to the systemd journal" default:"false" toml:"logging.journal" env:"LOGGING_JOURNAL"`
	LogBufferSize  int  `help:"Number of recent log lines served by the API" default:"500" toml:"logging.buffer_size" env:"LOG_BUFFER_SIZE"`
}

// Settings is the structured part of the configuration file.
type Settings struct {
	Logging  LoggingSettings   `toml:"logging"`
	AuthAPI  plugin.Config     `toml:"auth_api"`
	Services map[string]string `toml:"services"`
}

// LoggingSettings lists per-logger thresholds. "root" names the root
// logger.
type LoggingSettings struct {
	Levels map[string]string `toml:"levels"`
}

// DefaultSettings returns the settings used when the file has none.
func DefaultSettings() *Settings {
	return &Settings{
		Logging:  LoggingSettings{Levels: map[string]string{"root": "info"}},
		AuthAPI:  plugin.Config{Class: "memory.StaticAuth"},
		Services: map[string]string{},
	}
}

// LoadSettings reads the structured sections of the file at path. A missing
// file yields DefaultSettings; a malformed one is an error.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw Settings
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if len(raw.Logging.Levels) > 0 {
		settings.Logging.Levels = raw.Logging.Levels
	}
	if raw.AuthAPI.Class != "" {
		settings.AuthAPI = raw.AuthAPI
	}
	if raw.Services != nil {
		settings.Services = raw.Services
	}
	return settings, nil
}

// ApplyDefaults sets every field of opts that carries a default tag to that
// default. Use it when opts is built without the CLI, which otherwise
// applies the tags.
func ApplyDefaults(opts any) {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if def, ok := t.Field(i).Tag.Lookup("default"); ok {
			setFieldValueFromString(v.Field(i), def)
		}
	}
}

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	var configPath string
	if field := v.FieldByName("Config"); field.IsValid() && field.Kind() == reflect.String {
		configPath = field.String()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("failed to read config file: %w", err)
		default:
			var config map[string]any
			if err := toml.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse TOML config: %w", err)
			}

			for i := 0; i < v.NumField(); i++ {
				fieldType := t.Field(i)
				if changedFlags[fieldNameToFlag(fieldType.Name)] {
					continue
				}
				if tomlPath := fieldType.Tag.Get("toml"); tomlPath != "" {
					if value := getNestedValue(config, tomlPath); value != nil {
						setFieldValue(v.Field(i), value)
					}
				}
			}
		}
	}

	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}
		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue, ok := os.LookupEnv(EnvPrefix + envKey); ok && envValue != "" {
				setFieldValueFromString(v.Field(i), envValue)
			}
		}
	}

	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingPlain" -> "logging-plain", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue sets a field from a decoded TOML value.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		if arr, ok := value.([]any); ok {
			slice := make([]string, 0, len(arr))
			for _, item := range arr {
				if s, strOk := item.(string); strOk {
					slice = append(slice, s)
				}
			}
			field.Set(reflect.ValueOf(slice))
		}
	case reflect.Map:
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return
		}
		if table, ok := value.(map[string]any); ok {
			m := make(map[string]string, len(table))
			for k, item := range table {
				m[k] = fmt.Sprint(item)
			}
			field.Set(reflect.ValueOf(m))
		}
	}
}

// setFieldValueFromString sets a field from an environment variable.
// Slices are comma-separated, maps are comma-separated key=value pairs.
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := strings.Split(value, ",")
		slice := make([]string, len(parts))
		for i, part := range parts {
			slice[i] = strings.TrimSpace(part)
		}
		field.Set(reflect.ValueOf(slice))
	case reflect.Map:
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return
		}
		m := make(map[string]string)
		for _, pair := range strings.Split(value, ",") {
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			m[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
		field.Set(reflect.ValueOf(m))
	}
}
