// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store manages the in-memory collection of analysis sessions.
//
// The store owns session selection and the submit lifecycle: at most one
// analysis stream is in flight at a time, and a submission appends its user
// prompt and pending model reply together so observers never see one without
// the other. Sessions live only for the process lifetime.
package store

import (
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/medscope-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// Error variables for store operations.
// Use errors.Is to check for these.
var (
	// ErrBusy is returned when an operation needs the stream slot while an
	// analysis is already in flight.
	ErrBusy = &StoreError{Message: "an analysis is already in progress"}

	// ErrEmptySubmit is returned for a submission with no prompt text and
	// no attachment. Callers treat it as a no-op.
	ErrEmptySubmit = &StoreError{Message: "nothing to submit"}

	// ErrSessionNotFound is returned when a session ID or index is unknown.
	ErrSessionNotFound = &StoreError{Message: "session not found"}

	// ErrMessageNotFound is returned when a message ID is unknown.
	ErrMessageNotFound = &StoreError{Message: "message not found"}
)

// StoreError represents a store-related error.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// STORE
// =============================================================================

// Store holds all sessions for the running process and tracks which one is
// active and whether a stream is in flight. All methods are safe for
// concurrent use.
type Store struct {
	mu        sync.Mutex
	sessions  []*model.Session
	byID      map[string]*model.Session
	activeID  string
	streaming bool

	// streamMsgID is the model message being filled by the in-flight stream.
	streamMsgID string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID: make(map[string]*model.Session),
	}
}

// Submission is the message pair appended by a successful submit.
type Submission struct {
	User  *model.Message
	Reply *model.Message
}

// =============================================================================
// SESSION SELECTION
// =============================================================================

// StartSession detaches from the active session so the next submit begins a
// fresh conversation. The session itself is materialized by that first
// submit; mere "new chat" intent must not leave empty sessions in history.
// Fails with ErrBusy while a stream is in flight, since starting a session
// switches away from the one being streamed into.
func (s *Store) StartSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return ErrBusy
	}
	s.activeID = ""
	return nil
}

// SelectSession makes the session with the given ID active. Switching is
// refused while a stream is in flight.
func (s *Store) SelectSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return ErrBusy
	}
	if _, ok := s.byID[id]; !ok {
		return ErrSessionNotFound
	}
	s.activeID = id
	return nil
}

// SelectIndex makes the nth session active, 1-based in creation order.
func (s *Store) SelectIndex(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return ErrBusy
	}
	if n < 1 || n > len(s.sessions) {
		return ErrSessionNotFound
	}
	s.activeID = s.sessions[n-1].ID
	return nil
}

// Active returns the active session, or nil if none exists yet.
func (s *Store) Active() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[s.activeID]
}

// ActiveID returns the active session's ID, or empty.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Count returns the number of sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// List returns metadata for all sessions in creation order.
func (s *Store) List() []model.SessionMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	metas := make([]model.SessionMeta, 0, len(s.sessions))
	for _, sess := range s.sessions {
		metas = append(metas, sess.GetMeta())
	}
	return metas
}

// =============================================================================
// SUBMIT LIFECYCLE
// =============================================================================

// Submit records a new prompt in the active session and reserves the stream
// slot. The user message and an empty model reply are appended together; the
// stream fills the reply in via UpdateMessageContent. A submission with
// neither prompt text nor an attachment returns ErrEmptySubmit; a submit
// while a stream is in flight returns ErrBusy. If no session is active yet,
// one is created.
func (s *Store) Submit(prompt string, att *model.Attachment) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(prompt) == "" && att == nil {
		return nil, ErrEmptySubmit
	}
	if s.streaming {
		return nil, ErrBusy
	}

	sess := s.byID[s.activeID]
	if sess == nil {
		sess = model.NewSession()
		s.sessions = append(s.sessions, sess)
		s.byID[sess.ID] = sess
		s.activeID = sess.ID
	}

	user := model.NewUserMessage(prompt, att)
	reply := model.NewModelMessage("")
	sess.AppendExchange(user, reply)

	s.streaming = true
	s.streamMsgID = reply.ID
	return &Submission{User: user, Reply: reply}, nil
}

// UpdateMessageContent replaces a model message's content in place. The ID
// addresses the message; updates always carry the full snapshot.
func (s *Store) UpdateMessageContent(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findMessage(id)
	if msg == nil {
		return ErrMessageNotFound
	}
	msg.SetContent(content)
	return nil
}

// EndStream releases the stream slot and finalizes the message the stream
// was filling. Safe to call when no stream is in flight.
func (s *Store) EndStream(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg := s.findMessage(id); msg != nil {
		msg.Finalize()
	}
	if s.streamMsgID == id || id == "" {
		s.streaming = false
		s.streamMsgID = ""
	}
}

// IsStreaming returns true while an analysis stream is in flight.
func (s *Store) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// StreamingMessageID returns the ID of the message being streamed into, or
// empty when idle.
func (s *Store) StreamingMessageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamMsgID
}

// findMessage looks up a message by ID, checking the active session first.
// Caller must hold s.mu.
func (s *Store) findMessage(id string) *model.Message {
	if sess := s.byID[s.activeID]; sess != nil {
		if msg := sess.GetMessageByID(id); msg != nil {
			return msg
		}
	}
	for _, sess := range s.sessions {
		if msg := sess.GetMessageByID(id); msg != nil {
			return msg
		}
	}
	return nil
}

// =============================================================================
// SESSION LIST FORMATTING
// =============================================================================

// FormatSessionList formats session metadata as a table for display. The
// active session is marked with an asterisk.
func (s *Store) FormatSessionList() string {
	s.mu.Lock()
	activeID := s.activeID
	metas := make([]model.SessionMeta, 0, len(s.sessions))
	for _, sess := range s.sessions {
		metas = append(metas, sess.GetMeta())
	}
	s.mu.Unlock()

	if len(metas) == 0 {
		return "No sessions yet."
	}

	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	sb.WriteString(runewidth.FillRight("#", 4) +
		runewidth.FillRight("Created", 18) +
		runewidth.FillRight("Msgs", 6) + "Title\n")

	for i, meta := range metas {
		marker := " "
		if meta.ID == activeID {
			marker = "*"
		}
		num := marker + itoa(i+1)
		sb.WriteString(runewidth.FillRight(num, 4) +
			runewidth.FillRight(meta.CreatedAt.Format("2006-01-02 15:04"), 18) +
			runewidth.FillRight(itoa(meta.MessageCount), 6) +
			runewidth.Truncate(meta.Title, 40, "...") + "\n")
	}
	return sb.String()
}

// itoa converts a small non-negative int to its decimal string.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
