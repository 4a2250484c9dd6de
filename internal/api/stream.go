// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/medscope-tui/internal/sse"
)

// =============================================================================
// SESSION PHASES
// =============================================================================

// Phase tracks the lifecycle of one analysis stream.
type Phase int

const (
	// PhaseIdle means no analysis is in flight.
	PhaseIdle Phase = iota
	// PhaseQueued means the request was accepted but inference has not started.
	PhaseQueued
	// PhaseProcessing means the backend reported it is working.
	PhaseProcessing
	// PhaseStreaming means tokens are arriving.
	PhaseStreaming
	// PhaseDone means the stream completed successfully.
	PhaseDone
	// PhaseErrored means the stream ended with a failure.
	PhaseErrored
)

// String returns the phase name for logging and display.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseQueued:
		return "queued"
	case PhaseProcessing:
		return "processing"
	case PhaseStreaming:
		return "streaming"
	case PhaseDone:
		return "done"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal returns true for phases after which no further events apply.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseErrored
}

// Placeholder content shown before any tokens arrive.
const (
	PlaceholderQueued     = "Queued... awaiting GPU availability."
	PlaceholderProcessing = "Analyzing..."
)

// DefaultErrorMessage is substituted when a backend error event carries no
// message of its own.
const DefaultErrorMessage = "analysis failed"

// =============================================================================
// RENDER POLICY
// =============================================================================

// RenderPolicy selects how a completed analysis is rendered from its two
// output channels: the vision model's raw findings and the language model's
// report.
type RenderPolicy int

const (
	// AnswerOnly renders just the report, falling back to the findings
	// when the report is empty.
	AnswerOnly RenderPolicy = iota
	// LabeledChannels renders both channels under headings.
	LabeledChannels
)

// Render produces the final display content for the given channel outputs.
func (p RenderPolicy) Render(vlm, llm string) string {
	vlm = strings.TrimSpace(vlm)
	llm = strings.TrimSpace(llm)

	switch p {
	case LabeledChannels:
		var b strings.Builder
		if vlm != "" {
			b.WriteString("Imaging findings:\n")
			b.WriteString(vlm)
		}
		if llm != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString("Answer:\n")
			b.WriteString(llm)
		}
		return b.String()
	default:
		if llm != "" {
			return llm
		}
		return vlm
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// Accumulator folds the event stream of one analysis into display state.
//
// It keeps separate buffers for the two output channels. While streaming, the
// report channel takes over the display as soon as its first token arrives; a
// terminal done event may replace either buffer wholesale.
type Accumulator struct {
	phase   Phase
	vlm     strings.Builder
	llm     strings.Builder
	policy  RenderPolicy
	errMsg  string
	skipped int

	finalVLM string
	finalLLM string
}

// NewAccumulator creates an accumulator in the queued phase.
func NewAccumulator(policy RenderPolicy) *Accumulator {
	return &Accumulator{phase: PhaseQueued, policy: policy}
}

// Apply folds one event into the accumulator. Events arriving after a
// terminal phase are ignored.
func (a *Accumulator) Apply(ev sse.Event) {
	if a.phase.Terminal() {
		return
	}

	switch ev.Kind {
	case sse.KindStatus:
		// Late status events must not regress out of streaming; unknown
		// states are ignored like any other malformed payload.
		if a.phase == PhaseStreaming {
			return
		}
		switch ev.State {
		case "queued":
			a.phase = PhaseQueued
		case "processing":
			a.phase = PhaseProcessing
		}
	case sse.KindVLMToken:
		a.phase = PhaseStreaming
		a.vlm.WriteString(ev.Token)
	case sse.KindLLMToken:
		a.phase = PhaseStreaming
		a.llm.WriteString(ev.Token)
	case sse.KindDone:
		a.finish(ev.VLMOutput, ev.LLMReport)
	case sse.KindError:
		a.phase = PhaseErrored
		a.errMsg = ev.Message
		if a.errMsg == "" {
			a.errMsg = DefaultErrorMessage
		}
	}
}

// Skip records a frame that yielded no event.
func (a *Accumulator) Skip() {
	a.skipped++
}

// FinishEOF closes the stream after EOF without a terminal event. The
// backend treats this as success, so the accumulated content stands.
func (a *Accumulator) FinishEOF() {
	if a.phase.Terminal() {
		return
	}
	a.finish(nil, nil)
}

// finish moves to the done phase, letting explicit final outputs replace the
// accumulated channel buffers.
func (a *Accumulator) finish(vlmOut, llmOut *string) {
	a.finalVLM = a.vlm.String()
	a.finalLLM = a.llm.String()
	if vlmOut != nil {
		a.finalVLM = *vlmOut
	}
	if llmOut != nil {
		a.finalLLM = *llmOut
	}
	a.phase = PhaseDone
}

// Phase returns the current phase.
func (a *Accumulator) Phase() Phase {
	return a.phase
}

// Skipped returns how many malformed or unknown frames were dropped.
func (a *Accumulator) Skipped() int {
	return a.skipped
}

// VLM returns the vision channel content.
func (a *Accumulator) VLM() string {
	if a.phase == PhaseDone {
		return a.finalVLM
	}
	return a.vlm.String()
}

// LLM returns the report channel content.
func (a *Accumulator) LLM() string {
	if a.phase == PhaseDone {
		return a.finalLLM
	}
	return a.llm.String()
}

// ErrorMessage returns the backend failure message, if any.
func (a *Accumulator) ErrorMessage() string {
	return a.errMsg
}

// Display returns the content to show for the current phase.
func (a *Accumulator) Display() string {
	switch a.phase {
	case PhaseQueued:
		return PlaceholderQueued
	case PhaseProcessing:
		return PlaceholderProcessing
	case PhaseStreaming:
		if llm := strings.TrimSpace(a.llm.String()); llm != "" {
			return llm
		}
		// No report tokens yet; how the findings channel shows through
		// is the policy's call.
		return a.policy.Render(a.vlm.String(), "")
	case PhaseDone:
		return a.policy.Render(a.finalVLM, a.finalLLM)
	case PhaseErrored:
		return "Error: " + a.errMsg
	default:
		return ""
	}
}

// Result snapshots a completed analysis.
type Result struct {
	Content   string
	VLMOutput string
	LLMReport string
	Skipped   int
}

// Result returns the final snapshot. Only meaningful in a terminal phase.
func (a *Accumulator) Result() *Result {
	return &Result{
		Content:   a.Display(),
		VLMOutput: a.VLM(),
		LLMReport: a.LLM(),
		Skipped:   a.skipped,
	}
}

// =============================================================================
// STREAM HANDLER
// =============================================================================

// Handler receives progress callbacks during an analysis stream. All fields
// are optional; nil hooks are skipped. Hooks are called from the goroutine
// driving the stream.
type Handler struct {
	// OnPhase fires on every phase transition.
	OnPhase func(phase Phase)

	// OnContent fires whenever the display content changes, with the full
	// snapshot rather than a delta.
	OnContent func(content string)

	// OnDone fires once on successful completion.
	OnDone func(result *Result)

	// OnError fires once when the stream fails, including backend-reported
	// errors and cancellation.
	OnError func(err error)
}

func (h *Handler) phase(p Phase) {
	if h != nil && h.OnPhase != nil {
		h.OnPhase(p)
	}
}

func (h *Handler) content(c string) {
	if h != nil && h.OnContent != nil {
		h.OnContent(c)
	}
}

func (h *Handler) done(r *Result) {
	if h != nil && h.OnDone != nil {
		h.OnDone(r)
	}
}

func (h *Handler) fail(err error) {
	if h != nil && h.OnError != nil {
		h.OnError(err)
	}
}

// =============================================================================
// STREAMING ANALYSIS
// =============================================================================

// Analyze submits a prompt (and optional image) and drives the event stream
// to completion, reporting progress through the handler.
//
// The returned result is non-nil on success and on backend-reported errors;
// in the latter case the error is a *BackendError and the result content
// carries the user-facing failure text. Cancellation surfaces as ErrCancelled.
// There is no retry: one submission produces exactly one stream.
func (c *Client) Analyze(ctx context.Context, req *Request, policy RenderPolicy, h *Handler) (*Result, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	httpReq, err := c.buildAnalyzeRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator(policy)
	h.phase(acc.Phase())
	h.content(acc.Display())

	resp, err := c.streaming.Do(httpReq)
	if err != nil {
		err = mapCancellation(ctx, err)
		h.fail(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		apiErr := c.handleErrorResponse(resp.StatusCode, body)
		h.fail(apiErr)
		return nil, apiErr
	}

	if err := c.consumeStream(ctx, resp.Body, acc, h); err != nil {
		h.fail(err)
		return nil, err
	}

	if acc.Phase() == PhaseErrored {
		result := acc.Result()
		err := &BackendError{Message: acc.ErrorMessage()}
		h.phase(PhaseErrored)
		h.content(result.Content)
		h.fail(err)
		return result, err
	}

	result := acc.Result()
	h.phase(PhaseDone)
	h.content(result.Content)
	h.done(result)
	return result, nil
}

// consumeStream folds decoded events into the accumulator until a terminal
// event or EOF. Frames that yield no event are skipped silently.
func (c *Client) consumeStream(ctx context.Context, body io.Reader, acc *Accumulator, h *Handler) error {
	dec := sse.NewDecoder(body)

	for {
		select {
		case <-ctx.Done():
			return mapCancellation(ctx, ctx.Err())
		default:
		}

		frame, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				// EOF without done is implicit success
				acc.FinishEOF()
				return nil
			}
			if mapped := mapCancellation(ctx, err); mapped != err {
				return mapped
			}
			return fmt.Errorf("stream read failed: %w", err)
		}

		ev, ok := sse.ParseFrame(frame)
		if !ok {
			acc.Skip()
			continue
		}

		prevPhase := acc.Phase()
		prevContent := acc.Display()
		acc.Apply(ev)

		if acc.Phase().Terminal() {
			return nil
		}
		if acc.Phase() != prevPhase {
			h.phase(acc.Phase())
		}
		if content := acc.Display(); content != prevContent {
			h.content(content)
		}
	}
}

// mapCancellation rewrites context cancellation into ErrCancelled so callers
// can tell a user abort from a transport failure.
func mapCancellation(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return ErrCancelled
	}
	return err
}
