package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderGridShape(t *testing.T) {
	out := renderGrid(4)
	lines := strings.Split(out, "\n")
	wantLines := gridCols * (cellInnerHeight + 2)
	if len(lines) != wantLines {
		t.Fatalf("grid has %d lines, want %d", len(lines), wantLines)
	}
	if w := lipgloss.Width(out); w != gridWidth() {
		t.Fatalf("grid width = %d, want %d", w, gridWidth())
	}
}

func TestRenderGridOutOfRange(t *testing.T) {
	empty := renderGrid(-1)
	if renderGrid(9) != empty || renderGrid(-5) != empty {
		t.Fatalf("out-of-range cells should render an empty grid")
	}
}

func TestCenterText(t *testing.T) {
	got := centerText("ab", 6)
	if got != "  ab  " {
		t.Fatalf("centerText = %q", got)
	}
	if centerText("abcdef", 4) != "abcdef" {
		t.Fatalf("centerText must not cut long text")
	}
	odd := centerText("a", 4)
	if len(odd) != 4 || !strings.Contains(odd, "a") {
		t.Fatalf("odd padding = %q", odd)
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Fatalf("truncateText changed short text: %q", got)
	}
	got := truncateText("a long footer line", 7)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated text missing ellipsis: %q", got)
	}
}
