// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
//
// # Architecture
//
// The view is a single Bubble Tea model wrapping a conversation store, the
// backend client, and the streaming machinery:
//
//   - Model: state machine (ready / streaming) plus viewport, input, spinner
//   - SnapshotBuffer: coalesces streamed content snapshots to a 30fps cap
//   - startAnalysisCmd: runs the streaming request on a goroutine and feeds
//     progress back through the program reference
//   - commandHandlers: registry of slash commands (/new, /image, /export, ...)
//
// Streaming content always arrives as the full accumulated text, never as
// deltas; the buffer therefore keeps only the latest snapshot.
package chat
