// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemeWithMode(t *testing.T) {
	dark := NewThemeWithMode("dark")
	if !dark.IsDark {
		t.Error("dark mode should set IsDark")
	}

	light := NewThemeWithMode("light")
	if light.IsDark {
		t.Error("light mode should clear IsDark")
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewThemeWithMode("dark")
	theme.SetSize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize = (%d, %d), want (120, 40)", theme.Width, theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewThemeWithMode("dark")
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	indicators := []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Pending,
		StatusIndicators.Active,
	}

	for _, ind := range indicators {
		for _, r := range ind {
			if r > 127 {
				t.Errorf("indicator %q contains non-ASCII rune %q", ind, r)
			}
		}
	}
}

func TestRenderStatus(t *testing.T) {
	ok := RenderStatus(true, "backend ready")
	if !strings.Contains(ok, "backend ready") || !strings.Contains(ok, StatusIndicators.Success) {
		t.Errorf("success render missing parts: %q", ok)
	}

	fail := RenderStatus(false, "backend down")
	if !strings.Contains(fail, StatusIndicators.Error) {
		t.Errorf("error render missing indicator: %q", fail)
	}
}
