// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/medscope-tui/internal/api"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("default base URL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("default timeout = %d, want 30", cfg.Backend.TimeoutSecs)
	}
	if !cfg.Backend.HealthCheckOnStart {
		t.Error("health check on start should default to true")
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("default theme = %q", cfg.UI.Theme)
	}
	if !cfg.UI.Markdown {
		t.Error("markdown should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestPolicy(t *testing.T) {
	cfg := Default()
	if cfg.Policy() != api.AnswerOnly {
		t.Error("default policy should be AnswerOnly")
	}
	cfg.UI.ShowChannelLabels = true
	if cfg.Policy() != api.LabeledChannels {
		t.Error("channel labels should select LabeledChannels")
	}
}

func TestTimeout(t *testing.T) {
	cfg := Default()
	cfg.Backend.TimeoutSecs = 45
	if got := cfg.Timeout().Seconds(); got != 45 {
		t.Errorf("Timeout() = %vs, want 45s", got)
	}
}

func TestFillDefaults(t *testing.T) {
	cfg := &Config{}
	fillDefaults(cfg)

	if cfg.Backend.BaseURL == "" {
		t.Error("fillDefaults should populate base URL")
	}
	if cfg.Backend.TimeoutSecs == 0 {
		t.Error("fillDefaults should populate timeout")
	}
	if cfg.UI.Theme == "" {
		t.Error("fillDefaults should populate theme")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://gpu-node:9000/")
	t.Setenv(EnvTimeoutSecs, "90")
	t.Setenv(EnvTheme, "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.BaseURL != "http://gpu-node:9000/" {
		t.Errorf("base URL override = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSecs != 90 {
		t.Errorf("timeout override = %d, want 90", cfg.Backend.TimeoutSecs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme override = %q", cfg.UI.Theme)
	}
}

func TestApplyEnvOverridesIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv(EnvTimeoutSecs, "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("invalid timeout should keep default, got %d", cfg.Backend.TimeoutSecs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad base URL",
			mutate:  func(c *Config) { c.Backend.BaseURL = "not a url" },
			wantErr: "backend.base_url",
		},
		{
			name:    "missing scheme",
			mutate:  func(c *Config) { c.Backend.BaseURL = "localhost:8000" },
			wantErr: "backend.base_url",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Backend.TimeoutSecs = -1 },
			wantErr: "backend.timeout_secs",
		},
		{
			name:    "unknown theme",
			mutate:  func(c *Config) { c.UI.Theme = "neon" },
			wantErr: "ui.theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = "nope"
	cfg.Backend.TimeoutSecs = -5
	cfg.UI.Theme = "sepia"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	verrs, ok := err.(ValidateErrors)
	if !ok {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verrs), verrs)
	}
}

func TestSaveAndLoadTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "http://imaging.internal:8000"
	cfg.Backend.TimeoutSecs = 120
	cfg.UI.ShowChannelLabels = true
	cfg.Export.Dir = "/tmp/reports"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if loaded.Backend.BaseURL != cfg.Backend.BaseURL {
		t.Errorf("base URL = %q, want %q", loaded.Backend.BaseURL, cfg.Backend.BaseURL)
	}
	if loaded.Backend.TimeoutSecs != 120 {
		t.Errorf("timeout = %d, want 120", loaded.Backend.TimeoutSecs)
	}
	if !loaded.UI.ShowChannelLabels {
		t.Error("show_channel_labels should survive round trip")
	}
	if loaded.Export.Dir != "/tmp/reports" {
		t.Errorf("export dir = %q", loaded.Export.Dir)
	}
}

func TestSaveTOMLPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := SaveTOML(Default(), path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}
}

func TestSaveAndLoadJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.UI.Theme = "light"

	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("theme = %q, want light", loaded.UI.Theme)
	}
}

func TestLoadFromPathPartialFileGetsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	partial := "[backend]\nbase_url = \"http://10.0.0.5:8000\"\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:8000" {
		t.Errorf("base URL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("missing timeout should default to 30, got %d", cfg.Backend.TimeoutSecs)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("missing theme should default to dark, got %q", cfg.UI.Theme)
	}
}

func TestLoadFromPathEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := "[backend]\nbase_url = \"http://from-file:8000\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv(EnvBaseURL, "http://from-env:8000")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://from-env:8000" {
		t.Errorf("env should win over file, got %q", cfg.Backend.BaseURL)
	}
}

func TestLoadFromPathInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("this is {not toml"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected error for invalid TOML")
	}
}
