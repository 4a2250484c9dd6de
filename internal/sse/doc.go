// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the Server-Sent Events transport used by the analysis
// backend.
//
// The transport layer splits a byte stream into frames on blank-line
// boundaries, independent of how the reader chunks its data. The parsing
// layer turns a frame's data payload into a typed backend event. Frames that
// carry no usable event (comments, malformed JSON, unknown kinds) are
// reported as skippable rather than as errors, so one bad frame never aborts
// a stream.
//
// # Key Types
//
//   - Decoder: Splits a byte stream into blank-line-delimited frames
//   - Event: One decoded backend event (status, token, done, error)
//   - EventKind: Enumeration of the backend's event types
package sse
