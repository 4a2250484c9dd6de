// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the medscope application.
//
// This package contains common helper functions used throughout the
// application for string handling, image type detection, and file
// operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: Display-width truncation for terminal columns
//
// Image Utilities:
//   - DetectImageMIME: Content sniffing with extension fallback
//   - IsImageMIME: Whether a MIME type is attachable as a scan
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
package util
