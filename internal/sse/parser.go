// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// EVENT KINDS
// =============================================================================

// EventKind identifies a backend event type.
type EventKind string

const (
	// KindStatus reports a backend state transition (e.g. "processing").
	KindStatus EventKind = "status"
	// KindVLMToken carries one token of the vision model's findings.
	KindVLMToken EventKind = "vlm_token"
	// KindLLMToken carries one token of the language model's report.
	KindLLMToken EventKind = "llm_token"
	// KindDone signals successful completion, optionally with final outputs.
	KindDone EventKind = "done"
	// KindError signals a backend failure with a human-readable message.
	KindError EventKind = "error"
)

// Valid returns true if the kind is one the client understands.
func (k EventKind) Valid() bool {
	switch k {
	case KindStatus, KindVLMToken, KindLLMToken, KindDone, KindError:
		return true
	}
	return false
}

// =============================================================================
// EVENT PARSING
// =============================================================================

// Event is a single decoded backend event.
//
// VLMOutput and LLMReport are pointers so that a done event carrying an
// explicit empty string can be told apart from one omitting the field
// entirely; only present fields replace accumulated content.
type Event struct {
	Kind      EventKind `json:"event"`
	State     string    `json:"state,omitempty"`
	Token     string    `json:"token,omitempty"`
	VLMOutput *string   `json:"vlm_output,omitempty"`
	LLMReport *string   `json:"llm_report,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// ParseFrame extracts an event from a raw SSE frame.
//
// The frame's "data:" lines are concatenated and parsed as a JSON payload.
// Comment lines (leading ':') and unknown field lines are ignored. Returns
// ok=false for frames that yield no event: comments, empty frames, payloads
// that are not valid JSON, and events of a kind the client does not know.
// Callers skip such frames silently; one bad frame never aborts a stream.
func ParseFrame(frame []byte) (Event, bool) {
	var dataLines [][]byte

	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		if bytes.HasPrefix(line, []byte("data:")) {
			data := line[len("data:"):]
			data = bytes.TrimPrefix(data, []byte(" "))
			dataLines = append(dataLines, data)
		}
		// Other fields (event:, id:, retry:) carry no payload here
	}

	if len(dataLines) == 0 {
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal(bytes.Join(dataLines, []byte("\n")), &ev); err != nil {
		return Event{}, false
	}
	if !ev.Kind.Valid() {
		return Event{}, false
	}
	return ev, true
}
