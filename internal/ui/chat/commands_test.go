// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/config"
	"github.com/jeranaias/medscope-tui/internal/model"
	"github.com/jeranaias/medscope-tui/internal/store"
	"github.com/jeranaias/medscope-tui/internal/ui/styles"
)

func testModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	theme := styles.NewThemeWithMode("dark")
	client := api.NewClient("http://127.0.0.1:8000")
	return New(theme, cfg, client, store.New())
}

func runCommand(t *testing.T, m Model, cmd string) Model {
	t.Helper()
	updated, _ := m.handleCommand(cmd)
	return updated.(Model)
}

func TestUnknownCommand(t *testing.T) {
	m := runCommand(t, testModel(t), "/frobnicate")
	if !strings.Contains(m.statusMsg, "Unknown command") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestHelpCommand(t *testing.T) {
	m := runCommand(t, testModel(t), "/help")
	if !m.showHelp {
		t.Error("/help should show the help overlay")
	}
}

func TestNewCommand(t *testing.T) {
	m := testModel(t)
	sub, err := m.store.Submit("first question", nil)
	if err != nil {
		t.Fatal(err)
	}
	m.store.EndStream(sub.Reply.ID)

	m = runCommand(t, m, "/new")
	if m.store.ActiveID() != "" {
		t.Error("/new should detach from the active session")
	}
	if m.store.Count() != 1 {
		t.Errorf("session count = %d, new-chat intent must not add a session", m.store.Count())
	}
	if !strings.Contains(m.statusMsg, "Started a new session") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestSessionsCommand(t *testing.T) {
	m := runCommand(t, testModel(t), "/sessions")
	if !m.showSessions {
		t.Error("/sessions should show the session overlay")
	}
}

func TestSwitchCommand(t *testing.T) {
	m := testModel(t)
	for _, prompt := range []string{"first question", "second question"} {
		sub, err := m.store.Submit(prompt, nil)
		if err != nil {
			t.Fatal(err)
		}
		m.store.EndStream(sub.Reply.ID)
		if err := m.store.StartSession(); err != nil {
			t.Fatal(err)
		}
	}

	m = runCommand(t, m, "/switch 1")
	if !strings.Contains(m.statusMsg, "Switched") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}

	m = runCommand(t, m, "/switch 99")
	if !strings.Contains(m.statusMsg, "No session") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}

	m = runCommand(t, m, "/switch abc")
	if !strings.Contains(m.statusMsg, "not a session number") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}

	m = runCommand(t, m, "/switch")
	if !strings.Contains(m.statusMsg, "Usage") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestImageCommandAttachesValidImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	pngHeader := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	if err := os.WriteFile(path, pngHeader, 0644); err != nil {
		t.Fatal(err)
	}

	m := runCommand(t, testModel(t), "/image "+path)
	if m.pendingImage == nil {
		t.Fatalf("expected pending image, status: %q", m.statusMsg)
	}
	if m.pendingImage.MIME != "image/png" {
		t.Errorf("MIME = %q, want image/png", m.pendingImage.MIME)
	}
}

func TestImageCommandRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text, definitely not pixels"), 0644); err != nil {
		t.Fatal(err)
	}

	m := runCommand(t, testModel(t), "/image "+path)
	if m.pendingImage != nil {
		t.Error("text file should be rejected")
	}
	if !strings.Contains(m.statusMsg, "does not look like an image") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestImageCommandMissingFile(t *testing.T) {
	m := runCommand(t, testModel(t), "/image /no/such/file.png")
	if m.pendingImage != nil {
		t.Error("missing file should not attach")
	}
	if !strings.Contains(m.statusMsg, "Cannot read image") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestImageCommandClearsPending(t *testing.T) {
	m := testModel(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	pngHeader := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	if err := os.WriteFile(path, pngHeader, 0644); err != nil {
		t.Fatal(err)
	}

	m = runCommand(t, m, "/image "+path)
	if m.pendingImage == nil {
		t.Fatal("setup: image should attach")
	}

	m = runCommand(t, m, "/image")
	if m.pendingImage != nil {
		t.Error("/image with no args should clear the attachment")
	}
}

func TestExportCommandEmptySession(t *testing.T) {
	m := runCommand(t, testModel(t), "/export")
	if !strings.Contains(m.statusMsg, "Nothing to export") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestExportCommandWritesFile(t *testing.T) {
	m := testModel(t)
	m.cfg.Export.Dir = t.TempDir()

	sub, err := m.store.Submit("Check the left costophrenic angle.", nil)
	if err != nil {
		t.Fatal(err)
	}
	m.store.UpdateMessageContent(sub.Reply.ID, "The left costophrenic angle is sharp.")
	m.store.EndStream(sub.Reply.ID)

	m = runCommand(t, m, "/export markdown")
	if !strings.Contains(m.statusMsg, "Exported to") {
		t.Fatalf("statusMsg = %q", m.statusMsg)
	}

	entries, err := os.ReadDir(m.cfg.Export.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 exported file, found %d", len(entries))
	}
	if !strings.HasSuffix(entries[0].Name(), ".md") {
		t.Errorf("exported file = %q, want .md", entries[0].Name())
	}
}

func TestExportCommandUnknownFormat(t *testing.T) {
	m := testModel(t)
	if _, err := m.store.Submit("prompt", nil); err != nil {
		t.Fatal(err)
	}
	m.store.EndStream("")

	m = runCommand(t, m, "/export pdf")
	if !strings.Contains(m.statusMsg, "Unknown export format") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestLabelsCommand(t *testing.T) {
	m := testModel(t)
	if m.cfg.UI.ShowChannelLabels {
		t.Fatal("setup: labels should default to off")
	}

	m = runCommand(t, m, "/labels on")
	if !m.cfg.UI.ShowChannelLabels {
		t.Error("/labels on should enable channel labels")
	}

	m = runCommand(t, m, "/labels off")
	if m.cfg.UI.ShowChannelLabels {
		t.Error("/labels off should disable channel labels")
	}

	m = runCommand(t, m, "/labels maybe")
	if !strings.Contains(m.statusMsg, "Usage") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestHandleSubmitEmptyIsNoOp(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("   ")

	updated, cmd := m.handleSubmit()
	m = updated.(Model)

	if cmd != nil {
		t.Error("empty submit should produce no command")
	}
	if m.store.Count() != 0 {
		t.Error("empty submit should not create a session")
	}
	if m.input.Value() != "   " {
		t.Error("empty submit should leave the input untouched")
	}
}

func TestHandleSubmitImageOnly(t *testing.T) {
	m := testModel(t)
	m.pendingImage = &model.Attachment{Path: "/tmp/scan.png", MIME: "image/png", Size: 1024}
	m.input.SetValue("")

	updated, cmd := m.handleSubmit()
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("image-only submit should start an analysis")
	}
	sess := m.store.Active()
	if sess == nil || sess.MessageCount() != 2 {
		t.Fatal("image-only submit should append the exchange")
	}
	if !sess.Messages[0].HasImage() {
		t.Error("user message should carry the attachment")
	}
	if sess.GetTitle() != "Image analysis" {
		t.Errorf("title = %q, want fixed image-only placeholder", sess.GetTitle())
	}
	if m.pendingImage != nil {
		t.Error("submit should consume the pending image")
	}
}

func TestRenderMessagesShowsTranscript(t *testing.T) {
	m := testModel(t)
	m.width = 80
	m.height = 24

	sub, err := m.store.Submit("any effusion visible?", nil)
	if err != nil {
		t.Fatal(err)
	}
	m.store.UpdateMessageContent(sub.Reply.ID, "No effusion is seen.")
	m.store.EndStream(sub.Reply.ID)

	out := m.renderMessages()
	if !strings.Contains(out, "any effusion visible?") {
		t.Errorf("transcript missing user prompt:\n%s", out)
	}
	if !strings.Contains(out, "No effusion is seen.") {
		t.Errorf("transcript missing model reply:\n%s", out)
	}
}
