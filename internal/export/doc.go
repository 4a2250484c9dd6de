// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes analysis sessions to disk in shareable formats.
//
// # Key Types
//
//   - Exporter: interface implemented by each output format
//   - MarkdownExporter: transcript with YAML frontmatter and metadata
//   - JSONExporter: complete session snapshot
//   - Options: output directory and metadata toggles
//
// # Usage
//
//	path, err := export.ExportMarkdown(sess, &export.Options{
//	    OutputDir:       cfg.Export.Dir,
//	    IncludeMetadata: true,
//	})
package export
