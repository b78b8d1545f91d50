// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for podstr sessions.
//
// Configuration is loaded from a single file specified by:
//   - PODSTR_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// Files ending in .json or .jsonc are parsed as JSON with comments; anything
// else is parsed as YAML. The config file may contain environment-specific
// sections (development, staging, production) that override base values when
// the environment matches.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for a podstr session.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Pod configures the pod server connection.
	Pod PodConfig `yaml:"pod"`

	// Storage configures local durable state.
	Storage StorageConfig `yaml:"storage"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Pod     *PodConfig     `yaml:"pod,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// PodConfig configures the pod server connection.
type PodConfig struct {
	// ServerBase is the pod server's base URL. Required.
	ServerBase string `yaml:"server_base"`

	// Timeout bounds each pod request, as a Go duration string.
	// Default: 30s
	Timeout string `yaml:"timeout"`

	// RetryCeiling is the transport retry limit per request.
	// Default: 3
	RetryCeiling int `yaml:"retry_ceiling"`

	// RetryBase is the first retry backoff, as a Go duration string.
	// Subsequent retries double it.
	// Default: 500ms
	RetryBase string `yaml:"retry_base"`
}

// StorageConfig configures local durable state.
type StorageConfig struct {
	// StatePath is the directory holding the sync queue and other
	// session state.
	// Default: ${HOME}/.local/state/podstr
	StatePath string `yaml:"state_path"`

	// QueueRetryCeiling is the replay retry limit per queued item.
	// Default: 3
	QueueRetryCeiling int `yaml:"queue_retry_ceiling"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Pod: PodConfig{
			Timeout:      "30s",
			RetryCeiling: 3,
			RetryBase:    "500ms",
		},
		Storage: StorageConfig{
			StatePath:         filepath.Join(homeDir, ".local", "state", "podstr"),
			QueueRetryCeiling: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the PODSTR_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if PODSTR_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("PODSTR_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("PODSTR_CONFIG environment variable not set; " +
			"set it to the path of your podstr config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Pod != nil {
		if overrides.Pod.ServerBase != "" {
			c.Pod.ServerBase = overrides.Pod.ServerBase
		}
		if overrides.Pod.Timeout != "" {
			c.Pod.Timeout = overrides.Pod.Timeout
		}
		if overrides.Pod.RetryCeiling != 0 {
			c.Pod.RetryCeiling = overrides.Pod.RetryCeiling
		}
		if overrides.Pod.RetryBase != "" {
			c.Pod.RetryBase = overrides.Pod.RetryBase
		}
	}

	if overrides.Storage != nil {
		if overrides.Storage.StatePath != "" {
			c.Storage.StatePath = overrides.Storage.StatePath
		}
		if overrides.Storage.QueueRetryCeiling != 0 {
			c.Storage.QueueRetryCeiling = overrides.Storage.QueueRetryCeiling
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Storage.StatePath = expandVars(c.Storage.StatePath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Pod.ServerBase == "" {
		errs = append(errs, fmt.Errorf("pod.server_base is required"))
	} else if !strings.HasPrefix(c.Pod.ServerBase, "http://") && !strings.HasPrefix(c.Pod.ServerBase, "https://") {
		errs = append(errs, fmt.Errorf("pod.server_base must be an http(s) URL"))
	}

	if _, err := time.ParseDuration(c.Pod.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("pod.timeout: %w", err))
	}
	if _, err := time.ParseDuration(c.Pod.RetryBase); err != nil {
		errs = append(errs, fmt.Errorf("pod.retry_base: %w", err))
	}
	if c.Pod.RetryCeiling < 0 {
		errs = append(errs, fmt.Errorf("pod.retry_ceiling must not be negative"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TimeoutDuration returns the parsed request timeout.
func (c *PodConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RetryBaseDuration returns the parsed first retry backoff.
func (c *PodConfig) RetryBaseDuration() time.Duration {
	d, err := time.ParseDuration(c.RetryBase)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// LogLevel returns the slog level for the configured level name.
func (c *LogConfig) LogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnsureStatePath creates the state directory if it does not exist.
func (c *Config) EnsureStatePath() error {
	if c.Storage.StatePath == "" {
		return nil
	}
	if err := os.MkdirAll(c.Storage.StatePath, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Storage.StatePath, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
