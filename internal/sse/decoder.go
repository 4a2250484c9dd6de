// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bufio"
	"bytes"
	"io"
)

// =============================================================================
// FRAME DECODER
// =============================================================================

// MaxFrameSize is the maximum allowed size for a single SSE frame (64KB).
const MaxFrameSize = 64 * 1024

// Decoder splits a byte stream into SSE frames. Frames are delimited by a
// blank line, either "\n\n" or "\r\n\r\n". The decoder is agnostic to how the
// underlying reader chunks its data: a delimiter split across two reads is
// still recognized.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a frame decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxFrameSize)
	s.Split(splitFrames)
	return &Decoder{scanner: s}
}

// Next returns the next complete frame, without its trailing blank line.
// Returns io.EOF when the stream is exhausted. Trailing bytes that were never
// terminated by a blank line are dropped, not returned as a frame.
func (d *Decoder) Next() ([]byte, error) {
	if d.scanner.Scan() {
		return d.scanner.Bytes(), nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// splitFrames is a bufio.SplitFunc that tokenizes on blank-line frame
// boundaries. An unterminated tail at EOF is consumed without producing a
// token.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if pos, width := frameEnd(data); pos >= 0 {
		return pos + width, data[:pos], nil
	}
	if atEOF {
		// Incomplete frame at end of stream
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// frameEnd locates the earliest blank-line delimiter in data. Returns the
// delimiter's position and width, or (-1, 0) if none is present.
func frameEnd(data []byte) (pos, width int) {
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf, 2
	default:
		return crlf, 4
	}
}
