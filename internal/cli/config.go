// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration management commands.
package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/medscope-tui/internal/config"
)

// HandleConfig dispatches config subcommands. Returns a process exit code.
func HandleConfig(args *Args) int {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "path":
		return configPath()
	case "init":
		return configInit()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown config subcommand '%s'\n", args.Subcommand)
		fmt.Fprintln(os.Stderr, "Usage: medscope config [show|path|init]")
		return 1
	}
}

// configShow prints the effective configuration as TOML.
func configShow() int {
	cfg := config.Global()
	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// configPath prints the config file location.
func configPath() int {
	path, err := config.ConfigPathTOML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(path)
	return 0
}

// configInit writes a default config file if none exists.
func configInit() int {
	path, err := config.ConfigPathTOML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Config already exists at %s\n", path)
		return 1
	}

	if err := config.Save(config.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return 0
}
