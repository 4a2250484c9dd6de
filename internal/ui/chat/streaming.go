// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
//
// This file implements streaming optimization for smooth, flicker-free
// rendering while analysis output streams in. The SnapshotBuffer coalesces
// content snapshots so the viewport re-renders at a capped frame rate
// instead of once per token.
package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SNAPSHOT BUFFER
// =============================================================================

// SnapshotBuffer coalesces full-content snapshots for efficient rendering.
// Streamed updates always carry the complete accumulated text, so the buffer
// keeps only the latest snapshot and drops the ones in between. A flush is
// allowed at most once per frame interval (default ~33ms for 30fps).
//
// Thread-safety: all operations are protected by a mutex since snapshots
// arrive from the streaming goroutine while flushing happens in the main
// Bubble Tea loop.
type SnapshotBuffer struct {
	mu        sync.Mutex
	latest    string
	dirty     bool
	lastFlush time.Time

	minInterval time.Duration
}

// NewSnapshotBuffer creates a snapshot buffer capped at 30fps.
func NewSnapshotBuffer() *SnapshotBuffer {
	return NewSnapshotBufferWithFPS(30)
}

// NewSnapshotBufferWithFPS creates a snapshot buffer with a custom frame cap.
func NewSnapshotBufferWithFPS(maxFPS int) *SnapshotBuffer {
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &SnapshotBuffer{
		minInterval: time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush:   time.Now(),
	}
}

// Set records the latest content snapshot, replacing any pending one.
// Called from the streaming goroutine.
func (sb *SnapshotBuffer) Set(content string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.latest = content
	sb.dirty = true
}

// Flush returns the pending snapshot if the frame interval has elapsed.
// Returns (content, true) when a render should happen, ("", false) otherwise.
// Called from the main Bubble Tea loop.
func (sb *SnapshotBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if !sb.dirty {
		return "", false
	}
	if time.Since(sb.lastFlush) < sb.minInterval {
		return "", false
	}

	sb.dirty = false
	sb.lastFlush = time.Now()
	return sb.latest, true
}

// ForceFlush returns the pending snapshot regardless of the frame interval.
// Use this when a stream completes so the final content is never dropped.
func (sb *SnapshotBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if !sb.dirty {
		return "", false
	}

	sb.dirty = false
	sb.lastFlush = time.Now()
	return sb.latest, true
}

// Latest returns the most recent snapshot without consuming it.
func (sb *SnapshotBuffer) Latest() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.latest
}

// Reset clears the buffer. Use this when starting a new stream.
func (sb *SnapshotBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.latest = ""
	sb.dirty = false
	sb.lastFlush = time.Now()
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps.
// This drives batched rendering while a stream is active.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
