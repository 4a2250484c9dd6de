// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
//
// This file implements the command handler registry pattern: each slash
// command gets an individual, testable handler function.
package chat

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medscope-tui/internal/export"
	"github.com/jeranaias/medscope-tui/internal/model"
	"github.com/jeranaias/medscope-tui/internal/store"
	"github.com/jeranaias/medscope-tui/internal/util"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler is a function that handles a specific command.
// It receives the model and command arguments, and returns an updated model
// and command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	// Help & Meta
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	// Session Management
	"new":      handleNewCommand,
	"n":        handleNewCommand,
	"sessions": handleSessionsCommand,
	"list":     handleSessionsCommand,
	"switch":   handleSwitchCommand,
	"use":      handleSwitchCommand,
	"export":   handleExportCommand,
	"e":        handleExportCommand,

	// Attachments
	"image": handleImageCommand,
	"img":   handleImageCommand,

	// Display & Backend
	"labels": handleLabelsCommand,
	"health": handleHealthCommand,
}

// handleCommand processes slash commands using the registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if handler, ok := commandHandlers[cmdName]; ok {
		return handler(&m, args)
	}

	m.statusMsg = fmt.Sprintf("Unknown command '%s'. Type /help for commands.", parts[0])
	return m, nil
}

// =============================================================================
// HELP AND META COMMANDS
// =============================================================================

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.cancelMgr.clear()
	return *m, tea.Quit
}

// =============================================================================
// SESSION MANAGEMENT COMMANDS
// =============================================================================

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if err := m.store.StartSession(); err != nil {
		if errors.Is(err, store.ErrBusy) {
			m.statusMsg = "Cannot start a session while an analysis is running."
		} else {
			m.statusMsg = "Could not start session: " + err.Error()
		}
		return *m, nil
	}
	m.pendingImage = nil
	m.statusMsg = "Started a new session."
	m.updateViewport()
	return *m, nil
}

func handleSessionsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.showSessions = true
	return *m, nil
}

func handleSwitchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) != 1 {
		m.statusMsg = "Usage: /switch <n>"
		return *m, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		m.statusMsg = fmt.Sprintf("'%s' is not a session number.", args[0])
		return *m, nil
	}

	if err := m.store.SelectIndex(n); err != nil {
		switch {
		case errors.Is(err, store.ErrBusy):
			m.statusMsg = "Cannot switch sessions while an analysis is running."
		case errors.Is(err, store.ErrSessionNotFound):
			m.statusMsg = fmt.Sprintf("No session %d. See /sessions.", n)
		default:
			m.statusMsg = "Switch failed: " + err.Error()
		}
		return *m, nil
	}

	m.statusMsg = fmt.Sprintf("Switched to session %d.", n)
	m.updateViewport()
	return *m, nil
}

func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	active := m.store.Active()
	if active == nil || active.IsEmpty() {
		m.statusMsg = "Nothing to export yet."
		return *m, nil
	}

	format := "markdown"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	opts := &export.Options{
		OutputDir:         m.cfg.Export.Dir,
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	var path string
	var err error
	switch format {
	case "markdown", "md":
		path, err = export.ExportMarkdown(active, opts)
	case "json":
		path, err = export.ExportJSON(active, opts)
	default:
		m.statusMsg = fmt.Sprintf("Unknown export format '%s'. Use markdown or json.", format)
		return *m, nil
	}

	if err != nil {
		m.statusMsg = "Export failed: " + err.Error()
		return *m, nil
	}
	m.statusMsg = "Exported to " + path
	return *m, nil
}

// =============================================================================
// ATTACHMENT COMMANDS
// =============================================================================

func handleImageCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		if m.pendingImage != nil {
			m.pendingImage = nil
			m.statusMsg = "Cleared the pending image."
		} else {
			m.statusMsg = "Usage: /image <path>"
		}
		return *m, nil
	}

	path := strings.Join(args, " ")
	info, err := os.Stat(path)
	if err != nil {
		m.statusMsg = "Cannot read image: " + err.Error()
		return *m, nil
	}
	if info.IsDir() {
		m.statusMsg = fmt.Sprintf("'%s' is a directory.", path)
		return *m, nil
	}
	if info.Size() > util.MaxImageSize {
		m.statusMsg = fmt.Sprintf("Image exceeds the %d MB limit.", util.MaxImageSize/(1024*1024))
		return *m, nil
	}

	// Sniff the first bytes for a content type check
	head := make([]byte, 512)
	f, err := os.Open(path)
	if err != nil {
		m.statusMsg = "Cannot read image: " + err.Error()
		return *m, nil
	}
	n, _ := f.Read(head)
	f.Close()

	mime := util.DetectImageMIME(head[:n], path)
	if !util.IsImageMIME(mime) {
		m.statusMsg = fmt.Sprintf("'%s' does not look like an image (%s).", path, mime)
		return *m, nil
	}

	m.pendingImage = &model.Attachment{
		Path: path,
		MIME: mime,
		Size: info.Size(),
	}
	m.statusMsg = fmt.Sprintf("Attached %s (%s). It will be sent with the next prompt.", path, mime)
	return *m, nil
}

// =============================================================================
// DISPLAY AND BACKEND COMMANDS
// =============================================================================

func handleLabelsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) != 1 {
		m.statusMsg = "Usage: /labels on|off"
		return *m, nil
	}

	switch strings.ToLower(args[0]) {
	case "on":
		m.cfg.UI.ShowChannelLabels = true
		m.statusMsg = "Finished analyses will show labeled channels."
	case "off":
		m.cfg.UI.ShowChannelLabels = false
		m.statusMsg = "Finished analyses will show the report only."
	default:
		m.statusMsg = "Usage: /labels on|off"
	}
	return *m, nil
}

func handleHealthCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.statusMsg = "Probing backend..."
	return *m, CheckBackendCmd(m.client)
}
