package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/nback/internal/engine"
)

const (
	cellInnerWidth  = 5
	cellInnerHeight = 2
	gridCols        = 3
)

var (
	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	activeCellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Background(lipgloss.Color("#C89A3A"))
)

// renderGrid draws the 3x3 stimulus grid with the active cell filled.
// Cell indices run row-major from the top left; anything out of range
// leaves all cells empty.
func renderGrid(active int) string {
	if active < 0 || active >= engine.GridCells {
		active = -1
	}
	blank := strings.TrimRight(strings.Repeat(strings.Repeat(" ", cellInnerWidth)+"\n", cellInnerHeight), "\n")
	rows := make([]string, 0, gridCols)
	for row := 0; row < gridCols; row++ {
		cells := make([]string, 0, gridCols)
		for col := 0; col < gridCols; col++ {
			idx := row*gridCols + col
			if idx == active {
				cells = append(cells, activeCellStyle.Render(blank))
			} else {
				cells = append(cells, cellStyle.Render(blank))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// gridWidth returns the rendered grid's display width.
func gridWidth() int {
	return gridCols * (cellInnerWidth + 2)
}

// centerText pads the text on both sides to the given display width.
func centerText(text string, width int) string {
	textWidth := runewidth.StringWidth(text)
	if textWidth >= width {
		return text
	}
	left := (width - textWidth) / 2
	right := width - textWidth - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

// truncateText cuts the text to the given display width with an ellipsis.
func truncateText(text string, width int) string {
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
