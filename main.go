// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// medscope is a terminal client for the MedScope imaging analysis backend.
//
// Run with no arguments to start the interactive TUI, or use the ask,
// health, and config subcommands for one-shot scripted use.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/cli"
	"github.com/jeranaias/medscope-tui/internal/config"
	"github.com/jeranaias/medscope-tui/internal/store"
	"github.com/jeranaias/medscope-tui/internal/ui/chat"
	"github.com/jeranaias/medscope-tui/internal/ui/styles"
)

// Build metadata, injected via -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdAsk:
		os.Exit(cli.HandleAsk(args))
	case cli.CmdHealth:
		os.Exit(cli.HandleHealth())
	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI()
	}
}

// runTUI wires the chat model, backend client, and config watcher into a
// Bubble Tea program and blocks until the user quits.
func runTUI() {
	cfg := config.Global()

	theme := styles.NewThemeWithMode(cfg.UI.Theme)
	client := api.NewClient(cfg.Backend.BaseURL)
	st := store.New()

	m := chat.New(theme, cfg, client, st)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Streaming goroutines deliver messages through the program handle,
	// so it must be registered before Run starts consuming messages.
	chat.SetProgram(p)

	// Hot-reload the config file while the TUI is running. Watch errors
	// are non-fatal: the session just keeps its startup configuration.
	if path, err := config.ConfigPathTOML(); err == nil {
		watcher, werr := config.NewWatcher(path, func(c *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: c})
		})
		if werr == nil {
			if werr = watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
