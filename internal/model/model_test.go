// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("describe the scan", nil)

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "describe the scan" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.Streaming {
		t.Error("user messages should not be streaming")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
}

func TestNewModelMessage(t *testing.T) {
	msg := NewModelMessage("Analyzing...")

	if msg.Role != RoleModel {
		t.Errorf("Role = %q, want %q", msg.Role, RoleModel)
	}
	if msg.Content != "Analyzing..." {
		t.Errorf("Content = %q, want placeholder", msg.Content)
	}
	if !msg.Streaming {
		t.Error("model messages should start streaming")
	}
}

func TestMessageSetContent(t *testing.T) {
	msg := NewModelMessage("Analyzing...")
	msg.SetContent("The image shows")
	msg.SetContent("The image shows a small nodule")

	if msg.Content != "The image shows a small nodule" {
		t.Errorf("Content = %q, updates must replace not append", msg.Content)
	}

	msg.Finalize()
	if msg.Streaming {
		t.Error("Finalize should clear streaming flag")
	}
}

func TestMessagePreviewUnicode(t *testing.T) {
	msg := NewUserMessage("日本語のテキストです、これは長い文章", nil)
	preview := msg.Preview(10)

	runes := []rune(preview)
	if len(runes) != 10 {
		t.Errorf("Preview length = %d runes, want 10", len(runes))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Preview = %q, want ellipsis suffix", preview)
	}
}

func TestMessagePreviewShort(t *testing.T) {
	msg := NewUserMessage("short", nil)
	if got := msg.Preview(40); got != "short" {
		t.Errorf("Preview = %q, want unmodified content", got)
	}
}

func TestRoleDisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if RoleModel.DisplayName() != "MedScope" {
		t.Errorf("RoleModel.DisplayName() = %q", RoleModel.DisplayName())
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestNewSession(t *testing.T) {
	sess := NewSession()

	if !sess.IsEmpty() {
		t.Error("new session should be empty")
	}
	if !strings.HasPrefix(sess.ID, "sess_") {
		t.Errorf("ID = %q, want sess_ prefix", sess.ID)
	}
	if sess.GetTitle() != "New Session" {
		t.Errorf("GetTitle() = %q, want default", sess.GetTitle())
	}
}

func TestSessionAppendExchange(t *testing.T) {
	sess := NewSession()
	user := NewUserMessage("any fractures visible?", nil)
	reply := NewModelMessage("Queued... awaiting GPU availability.")

	sess.AppendExchange(user, reply)

	if sess.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2", sess.MessageCount())
	}
	if sess.Messages[0].Role != RoleUser || sess.Messages[1].Role != RoleModel {
		t.Error("exchange order should be user then model")
	}
	if sess.GetTitle() != "any fractures visible?" {
		t.Errorf("title = %q, want first prompt", sess.GetTitle())
	}
}

func TestSessionTitleTruncation(t *testing.T) {
	sess := NewSession()
	long := strings.Repeat("x", 100)
	sess.AddMessage(NewUserMessage(long, nil))

	title := sess.GetTitle()
	if len([]rune(title)) != MaxTitleLen+3 {
		t.Errorf("title length = %d runes, want %d", len([]rune(title)), MaxTitleLen+3)
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("title = %q, want ellipsis suffix", title)
	}
}

func TestSessionTitleImageOnly(t *testing.T) {
	sess := NewSession()
	att := &Attachment{Path: "/tmp/scan.png", MIME: "image/png", Size: 512}
	sess.AppendExchange(NewUserMessage("", att), NewModelMessage(""))

	if sess.GetTitle() != "Image analysis" {
		t.Errorf("title = %q, want fixed image-only placeholder", sess.GetTitle())
	}
}

func TestSessionTitleStable(t *testing.T) {
	sess := NewSession()
	sess.AddMessage(NewUserMessage("first prompt", nil))
	sess.AddMessage(NewUserMessage("second prompt", nil))

	if sess.GetTitle() != "first prompt" {
		t.Errorf("title = %q, should stay at first prompt", sess.GetTitle())
	}
}

func TestSessionGetMessageByID(t *testing.T) {
	sess := NewSession()
	reply := NewModelMessage("Analyzing...")
	sess.AppendExchange(NewUserMessage("prompt", nil), reply)

	found := sess.GetMessageByID(reply.ID)
	if found == nil {
		t.Fatal("GetMessageByID returned nil")
	}

	found.SetContent("updated")
	if sess.Messages[1].Content != "updated" {
		t.Error("GetMessageByID should return the live message, not a copy")
	}

	if sess.GetMessageByID("msg_nope") != nil {
		t.Error("unknown ID should return nil")
	}
}

func TestSessionClone(t *testing.T) {
	sess := NewSession()
	att := &Attachment{Path: "/tmp/scan.png", MIME: "image/png", Size: 1024}
	sess.AddMessage(NewUserMessage("check this", att))

	clone := sess.Clone()
	clone.Messages[0].SetContent("mutated")
	clone.Messages[0].Attachment.Path = "/elsewhere"

	if sess.Messages[0].Content != "check this" {
		t.Error("clone mutation leaked into original message")
	}
	if sess.Messages[0].Attachment.Path != "/tmp/scan.png" {
		t.Error("clone mutation leaked into original attachment")
	}
}

func TestSessionPrune(t *testing.T) {
	sess := NewSession()
	for i := 0; i < MaxMessages+10; i++ {
		sess.AddMessage(NewUserMessage("m", nil))
	}

	if sess.MessageCount() != MaxMessages {
		t.Errorf("MessageCount = %d, want %d", sess.MessageCount(), MaxMessages)
	}
}

func TestSessionMeta(t *testing.T) {
	sess := NewSession()
	sess.AppendExchange(NewUserMessage("summarize findings", nil), NewModelMessage("Analyzing..."))

	meta := sess.GetMeta()
	if meta.ID != sess.ID {
		t.Errorf("meta.ID = %q, want %q", meta.ID, sess.ID)
	}
	if meta.MessageCount != 2 {
		t.Errorf("meta.MessageCount = %d, want 2", meta.MessageCount)
	}
	if meta.Preview != "summarize findings" {
		t.Errorf("meta.Preview = %q", meta.Preview)
	}
}
