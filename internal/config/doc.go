// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages medscope configuration from TOML/JSON files,
// environment variables, and built-in defaults.
//
// # Resolution Order
//
// Configuration is resolved in layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. ~/.medscope/config.toml, falling back to ~/.medscope/config.json
//  3. MEDSCOPE_* environment variables
//
// # Key Types
//
//   - Config: top-level configuration (backend, UI, export sections)
//   - BackendConfig: analysis backend endpoint and timeouts
//   - UIConfig: theme, markdown rendering, channel labels
//   - Watcher: reloads the config when its file changes on disk
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.Backend.BaseURL)
package config
