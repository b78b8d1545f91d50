// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Pod.Timeout != "30s" {
		t.Errorf("expected timeout=30s, got %s", cfg.Pod.Timeout)
	}
	if cfg.Pod.RetryCeiling != 3 {
		t.Errorf("expected retry_ceiling=3, got %d", cfg.Pod.RetryCeiling)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level=info, got %s", cfg.Log.Level)
	}
}

func TestLoad_RequiresPodstrConfig(t *testing.T) {
	origConfig := os.Getenv("PODSTR_CONFIG")
	defer os.Setenv("PODSTR_CONFIG", origConfig)

	os.Unsetenv("PODSTR_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when PODSTR_CONFIG not set, got nil")
	}
	if !strings.Contains(err.Error(), "PODSTR_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "podstr.yaml")

	configContent := `
environment: development
pod:
  server_base: https://pods.example
  timeout: 10s
storage:
  state_path: ` + tmpDir + `
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Pod.ServerBase != "https://pods.example" {
		t.Errorf("server_base = %q", cfg.Pod.ServerBase)
	}
	if cfg.Pod.TimeoutDuration() != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Pod.TimeoutDuration())
	}
	// Unset fields keep their defaults.
	if cfg.Pod.RetryCeiling != 3 {
		t.Errorf("retry_ceiling = %d, want default 3", cfg.Pod.RetryCeiling)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "podstr.jsonc")

	configContent := `{
  // comments are allowed here
  "environment": "development",
  "pod": {
    "server_base": "https://pods.example",
  },
}`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Pod.ServerBase != "https://pods.example" {
		t.Errorf("server_base = %q", cfg.Pod.ServerBase)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "podstr.yaml")

	configContent := `
environment: production
pod:
  server_base: https://pods.example
  timeout: 10s
production:
  pod:
    server_base: https://pods.prod.example
  log:
    level: warn
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Pod.ServerBase != "https://pods.prod.example" {
		t.Errorf("server_base = %q, want the production override", cfg.Pod.ServerBase)
	}
	if cfg.Pod.Timeout != "10s" {
		t.Errorf("timeout = %q, want the base value kept", cfg.Pod.Timeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want the production override", cfg.Log.Level)
	}
}

func TestExpandVariables(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "podstr.yaml")

	configContent := `
pod:
  server_base: https://pods.example
storage:
  state_path: ${HOME}/podstr-state
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if strings.Contains(cfg.Storage.StatePath, "${HOME}") {
		t.Errorf("state_path = %q, want ${HOME} expanded", cfg.Storage.StatePath)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing server base", func(c *Config) { c.Pod.ServerBase = "" }},
		{"non-http server base", func(c *Config) { c.Pod.ServerBase = "ftp://pods.example" }},
		{"bad timeout", func(c *Config) { c.Pod.Timeout = "soon" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad environment", func(c *Config) { c.Environment = "qa" }},
	}
	for _, tc := range cases {
		cfg := Default()
		cfg.Pod.ServerBase = "https://pods.example"
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate accepted an invalid config", tc.name)
		}
	}
}
