package ui

import (
	"strings"
	"testing"

	"github.com/brianholle/custom-claude-avatar/internal/diff"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("AVATAR_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when AVATAR_DARK_MODE=1")
	}

	t.Setenv("AVATAR_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when AVATAR_DARK_MODE is unset")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for a black background")
	}
}

func TestRenderPreview(t *testing.T) {
	s := NewStyles(LightTheme())

	got := s.RenderPreview("  ▲▲▲\n ▐▛███▜▌\n")
	if !strings.Contains(got, "▲▲▲") || !strings.Contains(got, "▐▛███▜▌") {
		t.Fatalf("preview art missing from %q", got)
	}

	if got := s.RenderPreview(""); !strings.Contains(got, "no preview") {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestRenderDiff(t *testing.T) {
	s := NewStyles(DarkTheme())

	got := s.RenderDiff(diff.Compute("a(b)c", "a(xyz)c"))
	for _, want := range []string{"@@ offset", "- b", "+ xyz"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}

	if got := s.RenderDiff(diff.Compute("same", "same")); !strings.Contains(got, "no changes") {
		t.Errorf("expected no changes, got %q", got)
	}
}
