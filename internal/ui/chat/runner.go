// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/model"
)

// =============================================================================
// PROGRAM REFERENCE
// =============================================================================

// The streaming goroutine outlives any single Update call, so it delivers
// messages through the running tea.Program directly.
var (
	programMu  sync.Mutex
	programRef *tea.Program
)

// SetProgram stores the running program for async message delivery.
// Must be called after tea.NewProgram and before the first submission.
func SetProgram(p *tea.Program) {
	programMu.Lock()
	defer programMu.Unlock()
	programRef = p
}

// sendMsg delivers a message to the running program, if any.
func sendMsg(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

// CheckBackendCmd creates a command that probes the backend health endpoint.
func CheckBackendCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return BackendStatusMsg{Healthy: false, Err: api.ErrNotConfigured}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := client.Health(ctx)
		return BackendStatusMsg{
			Healthy: err == nil,
			Err:     err,
		}
	}
}

// =============================================================================
// ANALYSIS STREAMING
// =============================================================================

// startAnalysisCmd launches an analysis stream in a goroutine and returns the
// stream-start message immediately. Content, phase, and terminal messages are
// delivered through the program reference as the stream progresses.
func startAnalysisCmd(client *api.Client, policy api.RenderPolicy, prompt string, att *model.Attachment, messageID string, cm *cancelManager) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return StreamErrorMsg{MessageID: messageID, Err: api.ErrNotConfigured}
		}

		ctx, cancel := context.WithCancel(context.Background())
		cm.set(cancel)

		go runAnalysis(ctx, client, policy, prompt, att, messageID)

		return NewStreamStartMsg(messageID)
	}
}

// runAnalysis executes the streaming request and forwards progress to the UI.
// Runs on its own goroutine.
func runAnalysis(ctx context.Context, client *api.Client, policy api.RenderPolicy, prompt string, att *model.Attachment, messageID string) {
	req := &api.Request{Prompt: prompt}

	if att != nil {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			sendMsg(StreamErrorMsg{MessageID: messageID, Err: err})
			return
		}
		req.ImageName = filepath.Base(att.Path)
		req.ImageMIME = att.MIME
		req.ImageData = data
	}

	h := &api.Handler{
		OnPhase: func(phase api.Phase) {
			sendMsg(StreamPhaseMsg{MessageID: messageID, Phase: phase})
		},
		OnContent: func(content string) {
			sendMsg(NewStreamContentMsg(messageID, content))
		},
	}

	result, err := client.Analyze(ctx, req, policy, h)
	if err != nil {
		var backendErr *api.BackendError
		if errors.As(err, &backendErr) {
			// The error text already streamed through OnContent; the
			// terminal message just closes out the stream.
			sendMsg(StreamErrorMsg{MessageID: messageID, Err: backendErr})
			return
		}
		sendMsg(StreamErrorMsg{MessageID: messageID, Err: err})
		return
	}

	sendMsg(StreamCompleteMsg{MessageID: messageID, Result: result})
}
