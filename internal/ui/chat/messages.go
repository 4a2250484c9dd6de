// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
//
// This file defines all Bubble Tea message types used by the chat interface.
// Messages are organized into the following categories:
//   - Streaming: Stream start, content snapshots, phase changes, completion
//   - Backend: Health checks and status
//   - Input: User input submission and cancellation
//   - Config: Live configuration reloads
//   - Errors: Error display and dismissal
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/config"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that an analysis stream has begun.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamPhaseMsg reports a pipeline phase change during streaming.
type StreamPhaseMsg struct {
	MessageID string
	Phase     api.Phase
}

// StreamContentMsg delivers the full accumulated display text for the
// streaming message. Snapshots replace previous content, they are never
// deltas.
type StreamContentMsg struct {
	MessageID string
	Content   string
}

// StreamCompleteMsg signals that an analysis finished successfully.
type StreamCompleteMsg struct {
	MessageID string
	Result    *api.Result
}

// StreamErrorMsg signals that an analysis ended with an error or was
// cancelled.
type StreamErrorMsg struct {
	MessageID string
	Err       error
}

// StreamTickMsg is sent at 30fps during streaming to batch content updates.
// This prevents excessive rendering which causes flicker and high CPU.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// BackendStatusMsg reports the analysis backend's health.
type BackendStatusMsg struct {
	Healthy bool
	Err     error
}

// =============================================================================
// INPUT MESSAGES
// =============================================================================

// SubmitInputMsg signals that the user submitted input.
type SubmitInputMsg struct {
	Content string
}

// CancelInputMsg signals that the user cancelled input (Escape).
type CancelInputMsg struct{}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a freshly loaded configuration after the config
// file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ErrorMsg displays an error to the user.
type ErrorMsg struct {
	Title       string
	Message     string
	Dismissible bool
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewStreamStartMsg creates a new StreamStartMsg with the current timestamp.
func NewStreamStartMsg(messageID string) StreamStartMsg {
	return StreamStartMsg{
		MessageID: messageID,
		StartTime: time.Now(),
	}
}

// NewStreamContentMsg creates a content snapshot message.
func NewStreamContentMsg(messageID, content string) StreamContentMsg {
	return StreamContentMsg{
		MessageID: messageID,
		Content:   content,
	}
}

// NewErrorMsg creates a new dismissible error message.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Dismissible: true,
	}
}
