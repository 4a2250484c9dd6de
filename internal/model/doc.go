// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for analysis sessions and messages.
//
// This package defines the core domain types used throughout the application
// for representing analysis sessions, messages, and image attachments.
//
// # Key Types
//
//   - Session: Container for one analysis conversation with messages and metadata
//   - Message: Single message with role, content, timestamp, and optional attachment
//   - Attachment: Provenance of an image attached to a user message
//   - Role: Message role enumeration (user, model)
//
// # Usage
//
// Create a session and record an exchange:
//
//	sess := model.NewSession()
//	user := model.NewUserMessage("Is there a nodule in the right lung?", nil)
//	reply := model.NewModelMessage("Analyzing...")
//	sess.AppendExchange(user, reply)
package model
