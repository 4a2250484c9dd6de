// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for analysis sessions and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "MedScope"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment describes an image attached to a user message. The bytes are
// read at submit time; only provenance is kept on the message.
type Attachment struct {
	Path string `json:"path"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`

	// Streaming is true while the backend is still producing this
	// message's content. Not persisted.
	Streaming bool `json:"-"`
}

// NewUserMessage creates a new user message, optionally with an attachment.
func NewUserMessage(content string, att *Attachment) *Message {
	return &Message{
		ID:         generateID(),
		Role:       RoleUser,
		Content:    content,
		Attachment: att,
		Timestamp:  time.Now(),
	}
}

// NewModelMessage creates a streaming model message with the given initial
// content. The store seeds replies empty; content arrives via SetContent.
func NewModelMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleModel,
		Content:   content,
		Timestamp: time.Now(),
		Streaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// SetContent replaces the message content wholesale. Streamed updates always
// carry the full accumulated text, never a delta.
func (m *Message) SetContent(content string) {
	m.Content = content
}

// Finalize marks the message as no longer streaming.
func (m *Message) Finalize() {
	m.Streaming = false
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// HasImage returns true if the message carries an image attachment.
func (m *Message) HasImage() bool {
	return m.Attachment != nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
