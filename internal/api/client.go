// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Configuration constants for the analysis backend.
const (
	// AnalyzePath is the streaming analysis endpoint.
	AnalyzePath = "/api/analyze/"

	// HealthPath is the liveness endpoint.
	HealthPath = "/healthz"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// MaxPromptLen is the maximum accepted prompt length in characters,
	// mirroring the backend's form validation.
	MaxPromptLen = 2000

	// MaxErrorBodySize caps how much of a failed response body is read.
	MaxErrorBodySize = 1 * 1024 * 1024
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests (no timeout,
	// context-controlled).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Error variables for common backend errors.
var (
	// ErrNotConfigured indicates no base URL is set.
	ErrNotConfigured = errors.New("backend base URL not configured")

	// ErrEmptyPrompt indicates a submit with no prompt text and no image.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrPromptTooLong indicates the prompt exceeds MaxPromptLen.
	ErrPromptTooLong = errors.New("prompt too long")

	// ErrEmptyImage indicates an attached image with no bytes.
	ErrEmptyImage = errors.New("uploaded image is empty")

	// ErrCancelled indicates the user aborted an in-flight analysis.
	ErrCancelled = errors.New("cancelled")

	// ErrUnhealthy indicates the backend health check did not pass.
	ErrUnhealthy = errors.New("backend unhealthy")
)

// APIError represents a non-success HTTP response from the backend. The
// backend reports failures as a JSON body with a "detail" field.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// BackendError represents a failure reported inside the event stream itself,
// via a terminal error event.
type BackendError struct {
	Message string
}

// Error implements the error interface. An event stream may report a failure
// without any message; the fixed default stands in so the error is never
// silently blank.
func (e *BackendError) Error() string {
	if e.Message == "" {
		return DefaultErrorMessage
	}
	return e.Message
}

// apiErrorResponse is the backend's JSON error body.
type apiErrorResponse struct {
	Detail string `json:"detail"`
}

// healthResponse is the body of the health endpoint.
type healthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with a MedScope analysis backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	streaming  *http.Client
}

// NewClient creates a client for the backend at baseURL. A single trailing
// slash is stripped so endpoint paths can be joined verbatim.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		streaming:  sharedStreamingClient,
	}
}

// WithHTTPClient overrides both the request and streaming HTTP clients.
// Used by tests to point at a local server with custom transport settings.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streaming = hc
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if the client has a base URL.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health checks backend liveness. Returns nil only when the backend answers
// 200 with status "ok".
func (c *Client) Health(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		return fmt.Errorf("%w: %v", ErrUnhealthy, c.handleErrorResponse(resp.StatusCode, body))
	}

	var health healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxErrorBodySize)).Decode(&health); err != nil {
		return fmt.Errorf("%w: unexpected health body", ErrUnhealthy)
	}
	if health.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, health.Status)
	}
	return nil
}

// =============================================================================
// REQUEST BUILDING
// =============================================================================

// Request describes one analysis submission.
type Request struct {
	Prompt string

	// Optional image attachment
	ImageName string
	ImageMIME string
	ImageData []byte
}

// HasImage returns true if the request carries image bytes or a name.
func (r *Request) HasImage() bool {
	return r.ImageName != "" || len(r.ImageData) > 0
}

// Validate checks the request against the backend's form constraints before
// any bytes go on the wire. A blank prompt is fine as long as an image rides
// along; the backend accepts image-only submissions.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" && !r.HasImage() {
		return ErrEmptyPrompt
	}
	if len([]rune(r.Prompt)) > MaxPromptLen {
		return ErrPromptTooLong
	}
	if r.HasImage() && len(r.ImageData) == 0 {
		return ErrEmptyImage
	}
	return nil
}

// buildAnalyzeRequest encodes the submission as multipart form data.
func (c *Client) buildAnalyzeRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("prompt", req.Prompt); err != nil {
		return nil, fmt.Errorf("failed to encode prompt: %w", err)
	}

	if req.HasImage() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename=%q`, req.ImageName))
		mime := req.ImageMIME
		if mime == "" {
			mime = "application/octet-stream"
		}
		header.Set("Content-Type", mime)

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if _, err := part.Write(req.ImageData); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	return httpReq, nil
}

// handleErrorResponse converts a non-success HTTP response into an APIError,
// preferring the backend's "detail" field and falling back to the raw body.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		return &APIError{Status: statusCode, Detail: apiErr.Detail}
	}
	return &APIError{Status: statusCode, Detail: strings.TrimSpace(string(body))}
}
