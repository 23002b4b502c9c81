package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// overlayAt composites an overlay string on top of a base string at the given
// character position (x, y). Both are treated as line-based grids.
func overlayAt(base, overlay string, x, y, width, height int) string {
	baseLines := splitLines(base)
	overlayLines := splitLines(overlay)
	overlayWidth := maxLineWidth(overlayLines)
	for i, line := range overlayLines {
		row := y + i
		if row < 0 || row >= len(baseLines) || row >= height {
			continue
		}
		target := padRight(baseLines[row], width)
		left := ansi.Truncate(target, x, "")
		leftWidth := ansi.StringWidth(left)
		if leftWidth < x {
			left += strings.Repeat(" ", x-leftWidth)
		}

		overlayLine := padRight(line, overlayWidth)
		pos := x + ansi.StringWidth(overlayLine)
		right := ""
		if width > 0 {
			right = ansi.TruncateLeft(target, pos, "")
			rightWidth := ansi.StringWidth(right)
			gap := width - pos - rightWidth
			if gap > 0 {
				right = strings.Repeat(" ", gap) + right
			}
		}

		baseLines[row] = left + overlayLine + right
	}
	return strings.Join(baseLines, "\n")
}

// ---------------------------------------------------------------------------
// String utilities
// ---------------------------------------------------------------------------

// splitLines splits a string on newlines, returning at least one element.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// maxLineWidth returns the visual width of the widest line.
func maxLineWidth(lines []string) int {
	m := 0
	for _, line := range lines {
		if w := ansi.StringWidth(line); w > m {
			m = w
		}
	}
	return m
}

// padRight pads s with spaces so its visual width equals width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// truncate shortens s to width cells, appending "…" if truncated.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// clampWindow keeps cursor inside [0, total) and slides the window top so the
// cursor stays on screen given visible rows.
func clampWindow(cursor, top *int, total, visible int) {
	if *cursor >= total {
		*cursor = total - 1
	}
	if *cursor < 0 {
		*cursor = 0
	}
	if visible <= 0 {
		return
	}
	if *cursor < *top {
		*top = *cursor
	} else if *cursor >= *top+visible {
		*top = *cursor - visible + 1
	}
	maxTop := total - visible
	if maxTop < 0 {
		maxTop = 0
	}
	if *top > maxTop {
		*top = maxTop
	}
	if *top < 0 {
		*top = 0
	}
}

// ---------------------------------------------------------------------------
// Sizing
// ---------------------------------------------------------------------------

func (a App) sectionWidth() int {
	if a.width == 0 {
		return 80
	}
	width := a.width - 4
	if width < 20 {
		width = a.width
	}
	return width
}

func (a App) sectionContentWidth() int {
	if a.width == 0 {
		return 80
	}
	contentWidth := a.sectionWidth() - listBoxStyle.GetHorizontalFrameSize()
	if contentWidth < 1 {
		contentWidth = 1
	}
	return contentWidth
}

// paneWidths splits the run tab into the command pane and the form pane.
func (a App) paneWidths() (int, int) {
	total := a.sectionWidth()
	left := total * 3 / 10
	if left < 24 {
		left = 24
	}
	right := total - left - 1
	if right < 30 {
		right = 30
	}
	return left, right
}

func (a App) visibleCommandRows() int {
	if a.height == 0 {
		return 10
	}
	rows := a.height - 12
	if rows < 4 {
		rows = 4
	}
	if rows > 16 {
		rows = 16
	}
	return rows
}

func (a App) visibleHistoryRows() int {
	if a.height == 0 {
		return 12
	}
	rows := a.height - 11
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (a *App) ensureCommandWindow() {
	clampWindow(&a.cmdCursor, &a.cmdTop, len(a.matches), a.visibleCommandRows())
}

func (a *App) ensureHistoryWindow() {
	clampWindow(&a.histCursor, &a.histTop, len(a.sess.Records()), a.visibleHistoryRows())
}

func (a *App) resizeFileList() {
	w := a.width - 16
	if w > 56 {
		w = 56
	}
	if w < 24 {
		w = 24
	}
	h := a.height - 10
	if h > 14 {
		h = 14
	}
	if h < 5 {
		h = 5
	}
	a.fileList.SetSize(w, h)
}

func (a App) placeWithFooter(body, statusLine, footer string) string {
	if a.height == 0 {
		return body + "\n\n" + statusLine + "\n" + footer
	}
	contentHeight := a.height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}
	if lipgloss.Height(body) >= contentHeight {
		return body + "\n" + statusLine + "\n" + footer
	}
	main := lipgloss.Place(a.width, contentHeight, lipgloss.Left, lipgloss.Top, body)
	// Ensure every line is full-width to prevent ghosting from previous frames
	lines := splitLines(main)
	for i, line := range lines {
		lines[i] = padRight(line, a.width)
	}
	main = strings.Join(lines, "\n")
	return main + "\n" + statusLine + "\n" + footer
}
