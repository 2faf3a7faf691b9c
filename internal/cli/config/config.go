package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// Config is the configuration for the tokgate CLI.
type Config struct {
	API     APIConfig     `koanf:"api" yaml:"api"`
	Session SessionConfig `koanf:"session" yaml:"session"`
	Form    FormConfig    `koanf:"form" yaml:"form"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics"`
	Output  string        `koanf:"output" yaml:"output"` // table, json, yaml
}

// APIConfig describes the backend API.
type APIConfig struct {
	BaseURL        string        `koanf:"base_url" yaml:"base_url"`
	ForwardHeaders []string      `koanf:"forward_headers" yaml:"forward_headers"`
	Timeout        time.Duration `koanf:"timeout" yaml:"timeout"`
	RateLimit      float64       `koanf:"rate_limit" yaml:"rate_limit"` // requests/s, 0 disables
	CAFile         string        `koanf:"ca_file" yaml:"ca_file,omitempty"`
	ClientCert     string        `koanf:"client_cert" yaml:"client_cert,omitempty"`
	ClientKey      string        `koanf:"client_key" yaml:"client_key,omitempty"`
}

// SessionConfig controls the session store and its persistence.
type SessionConfig struct {
	WatchInterval time.Duration `koanf:"watch_interval" yaml:"watch_interval"`
	EntryPath     string        `koanf:"entry_path" yaml:"entry_path"`
	HomePath      string        `koanf:"home_path" yaml:"home_path"`
	Store         string        `koanf:"store" yaml:"store"`
	File          string        `koanf:"file" yaml:"file"`
	Cipher        string        `koanf:"cipher" yaml:"cipher,omitempty"`
	Passphrase    string        `koanf:"passphrase" yaml:"passphrase,omitempty"`
	BadgerDir     string        `koanf:"badger_dir" yaml:"badger_dir"`
	RedisAddr     string        `koanf:"redis_addr" yaml:"redis_addr,omitempty"`
	RedisKey      string        `koanf:"redis_key" yaml:"redis_key,omitempty"`
}

// FormConfig tunes field validation.
type FormConfig struct {
	Debounce time.Duration `koanf:"debounce" yaml:"debounce"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint served by watch.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr,omitempty"`
}

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Default returns the default CLI configuration.
func Default() *Config {
	dir := defaultDir()
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3000/api",
			ForwardHeaders: []string{"cookie"},
			Timeout:        30 * time.Second,
		},
		Session: SessionConfig{
			WatchInterval: time.Second,
			EntryPath:     "/",
			HomePath:      "/articles",
			Store:         "file",
			File:          filepath.Join(dir, "session.yaml"),
			BadgerDir:     filepath.Join(dir, "badger"),
		},
		Form: FormConfig{
			Debounce: 300 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputTable,
	}
}

// defaults flattens Default for the loader.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"api.base_url":           d.API.BaseURL,
		"api.forward_headers":    d.API.ForwardHeaders,
		"api.timeout":            d.API.Timeout.String(),
		"api.rate_limit":         d.API.RateLimit,
		"session.watch_interval": d.Session.WatchInterval.String(),
		"session.entry_path":     d.Session.EntryPath,
		"session.home_path":      d.Session.HomePath,
		"session.store":          d.Session.Store,
		"session.file":           d.Session.File,
		"session.badger_dir":     d.Session.BadgerDir,
		"form.debounce":          d.Form.Debounce.String(),
		"log.level":              d.Log.Level,
		"log.format":             d.Log.Format,
		"output":                 d.Output,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		return domain.ErrInvalidConfig.WithDetails("api.timeout must not be negative")
	}
	if c.API.RateLimit < 0 {
		return domain.ErrInvalidConfig.WithDetails("api.rate_limit must not be negative")
	}
	if (c.API.ClientCert == "") != (c.API.ClientKey == "") {
		return domain.ErrInvalidConfig.WithDetails("api.client_cert and api.client_key must be set together")
	}
	if c.Session.WatchInterval <= 0 {
		return domain.ErrInvalidConfig.WithDetails("session.watch_interval must be positive")
	}
	if c.Form.Debounce < 0 {
		return domain.ErrInvalidConfig.WithDetails("form.debounce must not be negative")
	}
	if !strings.HasPrefix(c.Session.EntryPath, "/") || !strings.HasPrefix(c.Session.HomePath, "/") {
		return domain.ErrInvalidConfig.WithDetails("session paths must start with /")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return domain.ErrInvalidConfig.WithDetails("log.level: " + err.Error())
	}
	if f := strings.ToLower(c.Log.Format); f != logger.FormatText && f != logger.FormatJSON {
		return domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("unknown log.format %q", c.Log.Format))
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("unknown output format %q", c.Output))
	}
	return nil
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tokgate"
	}
	return filepath.Join(home, ".tokgate")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
