// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for medscope.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdHealth
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Prompt is the question for one-shot ask mode.
	Prompt string

	// Image is an optional image path for ask mode.
	Image string

	// Labels requests labeled output channels in ask mode.
	Labels bool

	// JSON emits the final result as JSON in ask mode.
	JSON bool

	// Subcommand for config management (show, path, init).
	Subcommand string

	// Raw holds the remaining unparsed arguments.
	Raw []string
}

const usageText = `medscope - terminal client for the MedScope imaging analysis backend

Usage:
  medscope                     Start the TUI (default)
  medscope ask "question"      Ask a single question and print the report
    --image PATH               Attach an imaging study
    --labels                   Print both output channels with labels
    --json                     Print the full result as JSON
  medscope health              Probe the backend health endpoint
  medscope config [show|path|init]  Configuration management
  medscope version             Print version information
  medscope help                Show this help

Environment:
  MEDSCOPE_BASE_URL            Backend base URL (overrides config)
  MEDSCOPE_TIMEOUT_SECS        Request timeout in seconds
  MEDSCOPE_THEME               UI theme: dark, light, auto

Configuration is read from ~/.medscope/config.toml (or config.json).
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, *Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses a raw argument list. Split out from Parse for testing.
func ParseArgs(raw []string) (Command, *Args) {
	args := &Args{Raw: raw}

	if len(raw) == 0 {
		return CmdTUI, args
	}

	switch strings.ToLower(raw[0]) {
	case "ask", "a":
		parseAskFlags(raw[1:], args)
		return CmdAsk, args
	case "health", "status":
		return CmdHealth, args
	case "config", "cfg":
		if len(raw) > 1 {
			args.Subcommand = strings.ToLower(raw[1])
		}
		return CmdConfig, args
	case "version", "--version", "-v":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		// Unrecognized leading arg: treat the whole line as an ask prompt
		parseAskFlags(raw, args)
		return CmdAsk, args
	}
}

// parseAskFlags splits flags from the prompt words for ask mode.
func parseAskFlags(raw []string, args *Args) {
	var promptParts []string

	i := 0
	for i < len(raw) {
		arg := raw[i]
		switch {
		case arg == "--image" || arg == "-i":
			if i+1 < len(raw) {
				args.Image = raw[i+1]
				i += 2
				continue
			}
			i++
		case strings.HasPrefix(arg, "--image="):
			args.Image = strings.TrimPrefix(arg, "--image=")
			i++
		case arg == "--labels":
			args.Labels = true
			i++
		case arg == "--json":
			args.JSON = true
			i++
		default:
			promptParts = append(promptParts, arg)
			i++
		}
	}

	args.Prompt = strings.Join(promptParts, " ")
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("medscope %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
