// Package config loads the harness settings from defaults, an optional
// config file, a .env file, BATCHGPT_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/history"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable the harness reads.
const EnvPrefix = "BATCHGPT"

// Config holds the harness settings.
type Config struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	LogLevel          string        `mapstructure:"log_level"`
	History           HistoryConfig `mapstructure:"history"`
	Monitor           MonitorConfig `mapstructure:"monitor"`
}

// HistoryConfig selects where observations are recorded.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"`

	// Path defaults to history.DefaultPath(Backend) when empty.
	Path string `mapstructure:"path"`
}

// MonitorConfig tunes the monitor command.
type MonitorConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

var defaults = map[string]any{
	"base_url":                 batchgpt.DefaultBaseURL,
	"api_key":                  batchgpt.DefaultAPIKey,
	"model":                    string(batchgpt.ModelGPT35Turbo),
	"request_timeout":          30 * time.Second,
	"requests_per_second":      0.0,
	"log_level":                "warn",
	"history.backend":          history.BackendPebble,
	"history.path":             "",
	"monitor.refresh_interval": 5 * time.Second,
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"base-url":  "base_url",
	"api-key":   "api_key",
	"model":     "model",
	"log-level": "log_level",
}

// Options controls where [Load] looks.
type Options struct {
	// File is an explicit config file. When empty, batchgpt.{yaml,json,toml}
	// is searched for in the working directory and ~/.batchgpt, and a
	// missing file is not an error.
	File string

	// EnvFile is loaded into the environment first, without overriding
	// variables that are already set. Defaults to ".env"; missing is fine.
	EnvFile string

	// Flags, when set, override every other source for the flags that
	// were given explicitly.
	Flags *pflag.FlagSet
}

// Load reads the configuration and validates it.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %q: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("batchgpt")
		v.AddConfigPath(".")
		v.AddConfigPath(history.DefaultDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.History.Path == "" {
		cfg.History.Path = history.DefaultPath(cfg.History.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: must be an absolute http or https URL", c.BaseURL)
	}

	if c.Model == "" {
		return errors.New("model must not be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	if !slices.Contains(history.Backends, c.History.Backend) {
		return fmt.Errorf("invalid history.backend %q: must be one of %s", c.History.Backend, strings.Join(history.Backends, ", "))
	}

	if c.Monitor.RefreshInterval <= 0 {
		return fmt.Errorf("monitor.refresh_interval must be positive, got %s", c.Monitor.RefreshInterval)
	}

	return nil
}
