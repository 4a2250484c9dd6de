// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
//
// This file contains all rendering logic for the chat interface: the main
// layout, transcript rendering, input area, status bar, and the help and
// session overlays.
package chat

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/model"
	"github.com/jeranaias/medscope-tui/internal/ui/styles"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View implements tea.Model.
// Layout: header (1 line) + transcript (viewport) + input (2 lines) + status (1 line).
func (m Model) View() string {
	if !m.ready || m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.showSessions {
		return m.renderSessionsOverlay()
	}
	if m.lastError != nil {
		return m.renderErrorOverlay()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// renderHeader renders the title bar with the active session name.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("MedScope")

	sessionTitle := "New Session"
	if active := m.store.Active(); active != nil {
		sessionTitle = active.GetTitle()
	}
	subtitle := m.theme.HeaderSubtitle.Render(" " + sessionTitle)

	line := title + subtitle
	return m.theme.Header.Width(m.width).Render(line)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderMessages renders the active session's transcript.
func (m Model) renderMessages() string {
	active := m.store.Active()
	if active == nil || active.IsEmpty() {
		return m.renderWelcome()
	}

	var parts []string
	for i := range active.Messages {
		parts = append(parts, m.renderMessage(active.Messages[i]))
	}
	return strings.Join(parts, "\n\n")
}

// renderMessage renders a single transcript entry.
func (m Model) renderMessage(msg *model.Message) string {
	width := m.width - 6
	if width < 20 {
		width = 20
	}

	var label, body string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.RoleLabelUser.Render(msg.Role.DisplayName())
		body = m.theme.UserBubble.Width(width).Render(msg.Content)
	default:
		label = m.theme.RoleLabelModel.Render(msg.Role.DisplayName())
		content := msg.Content
		if !msg.Streaming && m.cfg.UI.Markdown {
			content = m.renderMarkdown(content)
		}
		if msg.Streaming {
			label += " " + m.theme.StreamingNote.Render(m.spinner.View())
		}
		body = m.theme.ModelBubble.Width(width).Render(content)
	}

	if msg.HasImage() {
		note := m.theme.Attachment.Render(
			fmt.Sprintf("[image: %s]", filepath.Base(msg.Attachment.Path)))
		label += " " + note
	}

	return label + "\n" + body
}

// renderMarkdown renders finished report text through glamour, falling back
// to the raw text when rendering fails.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil || strings.TrimSpace(content) == "" {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// renderWelcome fills the empty transcript area.
func (m Model) renderWelcome() string {
	lines := []string{
		m.theme.HeaderTitle.Render("MedScope"),
		"",
		m.theme.ThinkingText.Render("Ask a question about a medical imaging study."),
		m.theme.ThinkingText.Render("Attach an image with /image <path>, then submit a prompt."),
		"",
		m.theme.ShortcutDesc.Render("Type /help for commands."),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput renders the prompt line with attachment and length indicators.
func (m Model) renderInput() string {
	var indicators []string

	if m.pendingImage != nil {
		indicators = append(indicators, m.theme.Attachment.Render(
			fmt.Sprintf("[image: %s]", filepath.Base(m.pendingImage.Path))))
	}

	count := len([]rune(m.input.Value()))
	countText := fmt.Sprintf("%d/%d", count, api.MaxPromptLen)
	switch {
	case count >= api.MaxPromptLen:
		indicators = append(indicators, m.theme.CharCountDanger.Render(countText))
	case count >= api.MaxPromptLen*8/10:
		indicators = append(indicators, m.theme.CharCountWarning.Render(countText))
	default:
		indicators = append(indicators, m.theme.CharCount.Render(countText))
	}

	line := m.input.View()
	if len(indicators) > 0 {
		line += "  " + strings.Join(indicators, " ")
	}

	return m.theme.InputContainer.Width(m.width).Render(line)
}

// =============================================================================
// STATUS BAR
// =============================================================================

// renderStatusBar renders the bottom status line.
func (m Model) renderStatusBar() string {
	var parts []string

	// Backend health
	switch {
	case !m.backendChecked:
		parts = append(parts, m.theme.ShortcutDesc.Render("backend: ?"))
	case m.backendHealthy:
		parts = append(parts, m.theme.StatusHealthy.Render(styles.StatusIndicators.Active+" backend"))
	default:
		parts = append(parts, m.theme.StatusDegraded.Render(styles.StatusIndicators.Error+" backend"))
	}

	// Streaming phase
	if m.state == StateStreaming {
		parts = append(parts, m.theme.StatusPhase.Render(m.spinner.View()+" "+m.phase.String()))
	}

	// Session count
	parts = append(parts, m.theme.ShortcutDesc.Render(fmt.Sprintf("%d session(s)", m.store.Count())))

	// Transient status or key hints
	if m.statusMsg != "" {
		parts = append(parts, m.theme.ThinkingText.Render(m.statusMsg))
	} else {
		hint := m.theme.ShortcutKey.Render("Enter") + m.theme.ShortcutDesc.Render(" send  ") +
			m.theme.ShortcutKey.Render("Esc") + m.theme.ShortcutDesc.Render(" cancel  ") +
			m.theme.ShortcutKey.Render("/help")
		parts = append(parts, hint)
	}

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  |  "))
}

// =============================================================================
// OVERLAYS
// =============================================================================

// renderHelpOverlay renders the command reference.
func (m Model) renderHelpOverlay() string {
	rows := [][2]string{
		{"/new", "Start a new session"},
		{"/sessions", "List sessions"},
		{"/switch <n>", "Switch to session n"},
		{"/image <path>", "Attach an image to the next prompt"},
		{"/image", "Clear the pending attachment"},
		{"/export [markdown|json]", "Export the active session"},
		{"/labels on|off", "Toggle labeled output channels"},
		{"/health", "Probe the backend"},
		{"/quit", "Exit medscope"},
	}

	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Commands"))
	sb.WriteString("\n\n")
	for _, row := range rows {
		sb.WriteString(m.theme.ShortcutKey.Render(fmt.Sprintf("%-24s", row[0])))
		sb.WriteString(m.theme.ShortcutDesc.Render(row[1]))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("Press any key to close."))

	return m.centerOverlay(m.theme.OverlayBox.Render(sb.String()))
}

// renderSessionsOverlay renders the session list table.
func (m Model) renderSessionsOverlay() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Sessions"))
	sb.WriteString("\n\n")
	sb.WriteString(m.store.FormatSessionList())
	sb.WriteString("\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("Switch with /switch <n>. Press any key to close."))

	return m.centerOverlay(m.theme.OverlayBox.Render(sb.String()))
}

// renderErrorOverlay renders a dismissible error box.
func (m Model) renderErrorOverlay() string {
	var sb strings.Builder
	sb.WriteString(m.theme.ErrorTitle.Render(m.lastError.Title))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.ErrorMessage.Render(m.lastError.Message))
	if m.lastError.Dismissible {
		sb.WriteString("\n\n")
		sb.WriteString(m.theme.ShortcutDesc.Render("Press any key to dismiss."))
	}

	return m.centerOverlay(m.theme.ErrorBox.Render(sb.String()))
}

// centerOverlay places an overlay box in the middle of the screen.
func (m Model) centerOverlay(box string) string {
	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// newMarkdownRenderer builds a glamour renderer for the current width and
// theme. Returns nil when construction fails; callers fall back to raw text.
func newMarkdownRenderer(theme *styles.Theme, width int) *glamour.TermRenderer {
	wrap := width - 8
	if wrap < 20 {
		wrap = 20
	}

	style := glamour.WithStandardStyle("dark")
	if !theme.IsDark {
		style = glamour.WithStandardStyle("light")
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}
