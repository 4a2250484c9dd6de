// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot ask mode: stream a single analysis to the terminal.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jeranaias/medscope-tui/internal/api"
	"github.com/jeranaias/medscope-tui/internal/config"
	"github.com/jeranaias/medscope-tui/internal/util"
)

// HandleAsk runs a single analysis and prints the result.
// Returns a process exit code.
func HandleAsk(args *Args) int {
	// Image-only asks are fine; the backend analyzes the study without a
	// guiding question.
	if args.Prompt == "" && args.Image == "" {
		fmt.Fprintln(os.Stderr, "Error: ask requires a prompt or an image")
		fmt.Fprintln(os.Stderr, `Usage: medscope ask "question" [--image PATH]`)
		return 1
	}

	cfg := config.Global()
	client := api.NewClient(cfg.Backend.BaseURL)

	req := &api.Request{Prompt: args.Prompt}
	if args.Image != "" {
		data, err := os.ReadFile(args.Image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot read image: %v\n", err)
			return 1
		}
		mime := util.DetectImageMIME(data, args.Image)
		if !util.IsImageMIME(mime) {
			fmt.Fprintf(os.Stderr, "Error: %s does not look like an image (%s)\n", args.Image, mime)
			return 1
		}
		req.ImageName = filepath.Base(args.Image)
		req.ImageMIME = mime
		req.ImageData = data
	}

	policy := api.AnswerOnly
	if args.Labels {
		policy = api.LabeledChannels
	}

	// Ctrl+C cancels the stream
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Phase changes go to stderr so stdout stays clean for the report
	h := &api.Handler{
		OnPhase: func(phase api.Phase) {
			if !args.JSON {
				fmt.Fprintf(os.Stderr, "[%s]\n", phase)
			}
		},
	}

	result, err := client.Analyze(ctx, req, policy, h)
	if err != nil {
		switch {
		case result != nil && result.Content != "":
			// Backend errors carry their message in the content
			fmt.Fprintln(os.Stderr, result.Content)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}

	if args.JSON {
		out, jerr := json.MarshalIndent(result, "", "  ")
		if jerr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", jerr)
			return 1
		}
		fmt.Println(string(out))
		return 0
	}

	fmt.Println(result.Content)
	return 0
}

// HandleHealth probes the backend and reports its status.
// Returns a process exit code.
func HandleHealth() int {
	cfg := config.Global()
	client := api.NewClient(cfg.Backend.BaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	if err := client.Health(ctx); err != nil {
		fmt.Printf("Backend %s: unreachable (%v)\n", cfg.Backend.BaseURL, err)
		return 1
	}
	fmt.Printf("Backend %s: ok\n", cfg.Backend.BaseURL)
	return 0
}
