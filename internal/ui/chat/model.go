// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the analysis chat view for the TUI.
package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/config"
	"github.com/jeranaias/medscope-tui/internal/model"
	"github.com/jeranaias/medscope-tui/internal/store"
	"github.com/jeranaias/medscope-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving an analysis stream
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the analysis chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Configuration
	cfg *config.Config

	// Dimensions
	width  int
	height int

	// Conversation state
	store *store.Store

	// Backend client
	client *api.Client

	// Streaming
	buffer    *SnapshotBuffer
	cancelMgr *cancelManager // Pointer to avoid copying the mutex on Update
	phase     api.Phase

	// Pending image attachment for the next submission
	pendingImage *model.Attachment

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Markdown rendering for finished reports
	renderer *glamour.TermRenderer

	// Backend health
	backendHealthy bool
	backendChecked bool

	// Transient status line
	statusMsg string

	// Error state
	lastError *ErrorMsg

	// Overlays
	showHelp     bool
	showSessions bool

	ready bool
}

// New creates a new chat model.
func New(theme *styles.Theme, cfg *config.Config, client *api.Client, st *store.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the study or ask a question..."
	ti.CharLimit = api.MaxPromptLen
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII spinner frames for maximum terminal compatibility
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	return Model{
		state:     StateReady,
		theme:     theme,
		cfg:       cfg,
		store:     st,
		client:    client,
		buffer:    NewSnapshotBuffer(),
		cancelMgr: newCancelManager(),
		viewport:  vp,
		input:     ti,
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.cfg.Backend.HealthCheckOnStart {
		cmds = append(cmds, CheckBackendCmd(m.client))
	}
	return tea.Batch(cmds...)
}

// Store exposes the conversation store, mainly for tests.
func (m Model) Store() *store.Store {
	return m.store
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		m.state = StateStreaming
		m.phase = api.PhaseQueued
		m.statusMsg = ""
		m.buffer.Reset()
		return m, tea.Batch(streamTickCmd(), m.spinner.Tick)

	case StreamPhaseMsg:
		m.phase = msg.Phase
		return m, nil

	case StreamContentMsg:
		m.buffer.Set(msg.Content)
		return m, nil

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if content, ok := m.buffer.Flush(); ok {
			m.applyStreamContent(content)
		}
		return m, streamTickCmd()

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case BackendStatusMsg:
		m.backendChecked = true
		m.backendHealthy = msg.Healthy
		if !msg.Healthy && msg.Err != nil {
			m.statusMsg = "Backend unreachable: " + msg.Err.Error()
		}
		return m, nil

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.cfg = msg.Config
			m.statusMsg = "Configuration reloaded"
			m.updateViewport()
		}
		return m, nil

	case ErrorMsg:
		m.lastError = &msg
		return m, nil

	case ErrorDismissMsg:
		m.lastError = nil
		return m, nil

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Everything else goes to the focused components.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleResize adjusts layout to the new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// header (1) + input container (2) + status bar (1)
	viewportHeight := msg.Height - 4
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = viewportHeight
	m.input.Width = msg.Width - 6

	m.renderer = newMarkdownRenderer(m.theme, msg.Width)

	m.ready = true
	m.updateViewport()
	return m, nil
}

// handleKey routes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key dismisses an overlay first.
	if m.showHelp || m.showSessions {
		m.showHelp = false
		m.showSessions = false
		return m, nil
	}
	if m.lastError != nil && m.lastError.Dismissible {
		m.lastError = nil
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.cancelMgr.clear()
		return m, tea.Quit

	case "esc":
		if m.state == StateStreaming {
			m.cancelMgr.cancel()
			m.statusMsg = "Cancelling..."
			return m, nil
		}
		return m, nil

	case "enter":
		return m.handleSubmit()

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit processes the current input line.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" && m.pendingImage == nil {
		// Nothing to send; input keeps focus. A pending image alone is
		// a valid submission.
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	return m.submitPrompt(content)
}

// submitPrompt appends the exchange to the store and starts streaming.
func (m Model) submitPrompt(content string) (tea.Model, tea.Cmd) {
	att := m.pendingImage

	sub, err := m.store.Submit(content, att)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmptySubmit):
			return m, nil
		case errors.Is(err, store.ErrBusy):
			m.statusMsg = "An analysis is already running. Press Esc to cancel it."
			return m, nil
		default:
			m.statusMsg = "Submit failed: " + err.Error()
			return m, nil
		}
	}

	m.input.Reset()
	m.pendingImage = nil
	m.statusMsg = ""
	m.updateViewport()

	return m, startAnalysisCmd(m.client, m.cfg.Policy(), content, att, sub.Reply.ID, m.cancelMgr)
}

// applyStreamContent writes a content snapshot into the streaming message.
func (m *Model) applyStreamContent(content string) {
	id := m.store.StreamingMessageID()
	if id == "" {
		return
	}
	if err := m.store.UpdateMessageContent(id, content); err == nil {
		m.updateViewport()
	}
}

// handleStreamComplete finishes a successful analysis.
func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if content, ok := m.buffer.ForceFlush(); ok {
		m.applyStreamContent(content)
	}
	if msg.Result != nil {
		m.store.UpdateMessageContent(msg.MessageID, msg.Result.Content)
	}
	m.store.EndStream(msg.MessageID)
	m.cancelMgr.clear()
	m.state = StateReady
	m.phase = api.PhaseDone
	m.updateViewport()
	return m, nil
}

// handleStreamError finishes a failed or cancelled analysis.
func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if content, ok := m.buffer.ForceFlush(); ok {
		m.applyStreamContent(content)
	}

	switch {
	case errors.Is(msg.Err, api.ErrCancelled):
		current := strings.TrimSpace(m.buffer.Latest())
		if current == "" || current == api.PlaceholderQueued || current == api.PlaceholderProcessing {
			m.store.UpdateMessageContent(msg.MessageID, "(cancelled)")
		} else {
			m.store.UpdateMessageContent(msg.MessageID, current+"\n\n(cancelled)")
		}
		m.statusMsg = "Analysis cancelled"
		m.phase = api.PhaseErrored

	default:
		var backendErr *api.BackendError
		if errors.As(msg.Err, &backendErr) {
			// Error text already streamed into the message content.
			m.statusMsg = "Analysis failed"
		} else if msg.Err != nil {
			m.store.UpdateMessageContent(msg.MessageID, "Error: "+msg.Err.Error())
			m.statusMsg = "Analysis failed: " + msg.Err.Error()
		}
		m.phase = api.PhaseErrored
	}

	m.store.EndStream(msg.MessageID)
	m.cancelMgr.clear()
	m.state = StateReady
	m.updateViewport()
	return m, nil
}

// updateViewport re-renders the transcript and keeps the view pinned to the
// bottom.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}
