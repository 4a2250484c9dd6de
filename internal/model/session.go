// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for analysis sessions and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in session history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// MaxTitleLen caps auto-generated session titles; longer first prompts are
// cut at this many runes and marked with an ellipsis.
const MaxTitleLen = 30

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one analysis conversation: a sequence of user prompts and
// model reports.
type Session struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`
}

// NewSession creates a new session with a generated ID.
func NewSession() *Session {
	return &Session{
		ID:        generateSessionID(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the session.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
	s.updateTitle()
	s.pruneOldMessages()
}

// AppendExchange appends a user message and its model reply together, so
// observers never see the prompt without its pending answer.
func (s *Session) AppendExchange(user, reply *Message) {
	s.Messages = append(s.Messages, user, reply)
	s.UpdatedAt = time.Now()
	s.updateTitle()
	s.pruneOldMessages()
}

// GetLastMessage returns the most recent message, or nil if empty.
func (s *Session) GetLastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// GetMessageByID returns a message by its ID, or nil if not found.
func (s *Session) GetMessageByID(id string) *Message {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if there are no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// GetHistory returns the message history for display.
func (s *Session) GetHistory() []*Message {
	return s.Messages
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (s *Session) updateTitle() {
	if s.Title != "" {
		return
	}

	for _, msg := range s.Messages {
		if msg.Role != RoleUser {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" && msg.HasImage() {
			s.Title = "Image analysis"
			return
		}
		runes := []rune(msg.Content)
		if len(runes) > MaxTitleLen {
			s.Title = string(runes[:MaxTitleLen]) + "..."
		} else {
			s.Title = msg.Content
		}
		return
	}
}

// SetTitle manually sets the session title.
func (s *Session) SetTitle(title string) {
	s.Title = title
	s.UpdatedAt = time.Now()
}

// GetTitle returns the session title or a default.
func (s *Session) GetTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "New Session"
}

// =============================================================================
// SERIALIZATION HELPERS
// =============================================================================

// Preview returns a short preview of the session.
func (s *Session) Preview() string {
	if len(s.Messages) == 0 {
		return "Empty session"
	}

	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Preview(100)
		}
	}
	return s.Messages[0].Preview(100)
}

// GetMeta returns metadata about the session.
func (s *Session) GetMeta() SessionMeta {
	return SessionMeta{
		ID:           s.ID,
		Title:        s.GetTitle(),
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Preview:      s.Preview(),
	}
}

// SessionMeta holds lightweight metadata for listing.
type SessionMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]*Message, len(s.Messages)),
	}

	for i, msg := range s.Messages {
		msgCopy := *msg
		if msg.Attachment != nil {
			attCopy := *msg.Attachment
			msgCopy.Attachment = &attCopy
		}
		clone.Messages[i] = &msgCopy
	}

	return clone
}

// pruneOldMessages drops the oldest messages once history exceeds MaxMessages.
func (s *Session) pruneOldMessages() {
	if len(s.Messages) <= MaxMessages {
		return
	}
	s.Messages = s.Messages[len(s.Messages)-MaxMessages:]
}
