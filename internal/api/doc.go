// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the client for the MedScope analysis backend.
//
// The backend exposes a multipart POST endpoint that answers with a stream
// of Server-Sent Events: a status transition, vision-model tokens,
// language-model tokens, and a terminal done or error event. This package
// submits requests and folds the event stream into display state.
//
// # Key Types
//
//   - Client: HTTP client for the analysis backend with health checking
//   - Request: One analysis submission (prompt plus optional image)
//   - Accumulator: Folds stream events into phases and channel buffers
//   - Handler: Progress callbacks fired while a stream is consumed
//   - RenderPolicy: How a finished analysis is rendered for display
//
// # Usage
//
// Submit a prompt and stream the answer:
//
//	client := api.NewClient(baseURL)
//	result, err := client.Analyze(ctx, &api.Request{Prompt: prompt}, api.AnswerOnly, &api.Handler{
//	    OnContent: func(content string) { render(content) },
//	})
package api
