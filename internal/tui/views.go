package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/XRed8X/PDB-Engine/internal/form"
	"github.com/XRed8X/PDB-Engine/internal/history"
)

const appName = "PDB Engine"

// ---------------------------------------------------------------------------
// Top-level view
// ---------------------------------------------------------------------------

func (a App) View() string {
	header := renderHeader(appName, a.activeTab, a.width)

	var body string
	switch a.activeTab {
	case tabHistory:
		body = a.historyView()
	default:
		body = a.runView()
	}

	base := header + "\n\n" + body
	statusLine := a.renderStatus(a.statusText())
	footer := a.renderFooter(a.footerBindings())

	if a.showPicker {
		return a.composeModal(base, statusLine, footer)
	}
	return a.placeWithFooter(base, statusLine, footer)
}

func (a App) statusText() string {
	if a.status != "" {
		return a.status
	}
	if a.activeTab == tabHistory {
		return fmt.Sprintf("%d runs", len(a.sess.Records()))
	}
	return "Pick a command, fill the form, press s to run."
}

func (a App) footerBindings() []key.Binding {
	if a.showPicker {
		return []key.Binding{a.keys.UpDown, a.keys.Select, a.keys.Clear, a.keys.Cancel, a.keys.QuitHard}
	}
	if a.editing {
		return []key.Binding{a.keys.Commit, a.keys.Cancel}
	}
	if a.activeTab == tabHistory {
		return []key.Binding{a.keys.UpDown, a.keys.Reveal, a.keys.NextTab, a.keys.Quit}
	}
	if a.focus == focusForm {
		return []key.Binding{a.keys.UpDown, a.keys.Edit, a.keys.Submit, a.keys.Back, a.keys.NextTab, a.keys.Quit}
	}
	return []key.Binding{a.keys.Filter, a.keys.UpDown, a.keys.Select, a.keys.NextTab, a.keys.QuitHard}
}

// ---------------------------------------------------------------------------
// Chrome
// ---------------------------------------------------------------------------

func renderHeader(appName string, activeTab, width int) string {
	name := headerAppStyle.Render(appName)

	var tabs []string
	for i, tab := range tabNames {
		if i == activeTab {
			tabs = append(tabs, activeTabStyle.Render(tab))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(tab))
		}
	}
	tabBar := tabSepStyle.Render(" ") + strings.Join(tabs, tabSepStyle.Render("│"))

	content := name + "  " + tabBar
	if width <= 0 {
		return headerBarStyle.Render(content)
	}
	return headerBarStyle.Width(width).Render(content)
}

func (a App) renderFooter(bindings []key.Binding) string {
	// Build help text where every character carries the footer background.
	bg := colorMantle
	keyStyle := helpKeyStyle.Background(bg)
	descStyle := helpDescStyle.Background(bg)
	space := lipgloss.NewStyle().Background(bg).Render(" ")
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		if help.Key == "" && help.Desc == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(help.Key)+space+descStyle.Render(help.Desc))
	}
	content := strings.Join(parts, sep)

	if a.width == 0 {
		return footerStyle.Render(content)
	}
	return footerStyle.Width(a.width).Render(content)
}

func (a App) renderStatus(text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	if a.width == 0 {
		return statusBarStyle.Render(flat)
	}
	return statusBarStyle.Width(a.width).Render(flat)
}

func (a App) renderSection(title, content string) string {
	contentWidth := a.sectionContentWidth()
	header := padRight(titleStyle.Render(title), contentWidth)
	sepStyle := lipgloss.NewStyle().Foreground(colorSurface2)
	separator := sepStyle.Render(strings.Repeat("─", contentWidth))
	section := listBoxStyle.Width(a.sectionWidth()).Render(header + "\n" + separator + "\n" + content)
	if a.width == 0 {
		return section
	}
	return lipgloss.Place(a.width, lipgloss.Height(section), lipgloss.Center, lipgloss.Top, section)
}

func (a App) renderPane(title, content string, width int, focused bool) string {
	inner := width - listBoxStyle.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}
	header := padRight(titleStyle.Render(title), inner)
	sepStyle := lipgloss.NewStyle().Foreground(colorSurface2)
	separator := sepStyle.Render(strings.Repeat("─", inner))
	box := listBoxStyle
	if focused {
		box = focusedBoxStyle
	}
	return box.Width(width).Render(header + "\n" + separator + "\n" + content)
}

// ---------------------------------------------------------------------------
// Run tab
// ---------------------------------------------------------------------------

func (a App) runView() string {
	leftW, rightW := a.paneWidths()
	frame := listBoxStyle.GetHorizontalFrameSize()

	left := a.renderPane("Commands", a.commandPane(leftW-frame), leftW,
		a.focus == focusCommands && !a.showPicker)
	right := a.renderPane(a.formTitle(), a.formPane(rightW-frame), rightW,
		a.focus == focusForm && !a.showPicker)

	row := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	if a.width == 0 {
		return row
	}
	return lipgloss.Place(a.width, lipgloss.Height(row), lipgloss.Center, lipgloss.Top, row)
}

func (a App) formTitle() string {
	if name := a.sess.SelectedCommand(); name != "" {
		return name
	}
	return "Form"
}

func (a App) commandPane(width int) string {
	lines := []string{a.filterLine(), ""}
	if len(a.matches) == 0 {
		lines = append(lines, emptyValueStyle.Render("no match"))
		return strings.Join(lines, "\n")
	}
	visible := a.visibleCommandRows()
	end := a.cmdTop + visible
	if end > len(a.matches) {
		end = len(a.matches)
	}
	selected := a.sess.SelectedCommand()
	for i := a.cmdTop; i < end; i++ {
		name := a.matches[i]
		prefix := "  "
		if i == a.cmdCursor {
			prefix = cursorStyle.Render("> ")
		}
		label := name
		if name == selected {
			label = fieldValueStyle.Render(name)
		}
		lines = append(lines, truncate(prefix+label, width))
	}
	if len(a.matches) > visible {
		lines = append(lines, scrollStyle.Render(
			fmt.Sprintf("── %d-%d of %d ──", a.cmdTop+1, end, len(a.matches))))
	}
	return strings.Join(lines, "\n")
}

func (a App) filterLine() string {
	if a.query == "" && a.focus != focusCommands {
		return emptyValueStyle.Render("type to filter")
	}
	caret := ""
	if a.focus == focusCommands && !a.showPicker {
		caret = "▌"
	}
	return queryStyle.Render("/" + a.query + caret)
}

func (a App) formPane(width int) string {
	cfg := a.sess.ActiveConfig()
	if cfg == nil {
		lines := []string{emptyValueStyle.Render("Pick a command on the left.")}
		if sug := a.sess.Suggestion(); sug != "" {
			lines = append(lines, helpDescStyle.Render("did you mean "+sug+"?"))
		}
		return strings.Join(lines, "\n")
	}

	fields := a.sess.Fields()
	nameW := 0
	for _, f := range fields {
		if len(f) > nameW {
			nameW = len(f)
		}
	}

	lines := make([]string, 0, len(fields)+6)
	for i, name := range fields {
		v, ok := a.sess.FieldValue(name)
		if !ok {
			continue
		}
		prefix := "  "
		if a.focus == focusForm && i == a.fieldCursor && !a.showPicker {
			prefix = cursorStyle.Render("> ")
		}
		lines = append(lines, truncate(prefix+a.renderField(name, v, i, nameW), width))
	}

	lines = append(lines, "")
	lines = append(lines, previewStyle.Width(width).Render(a.sess.Preview()))
	if zone := a.outcomeLines(width); len(zone) > 0 {
		lines = append(lines, "")
		lines = append(lines, zone...)
	}
	return strings.Join(lines, "\n")
}

func (a App) renderField(name string, v form.Value, idx, nameW int) string {
	switch v.Kind {
	case form.KindFlag:
		box := emptyValueStyle.Render("[ ]")
		if v.Flag {
			box = flagOnStyle.Render("[x]")
		}
		return box + " " + name
	case form.KindFile:
		label := fieldNameStyle.Render(padRight(name, nameW)) + "  "
		if v.File == nil || v.File.Name == "" {
			return label + emptyValueStyle.Render("(none, enter to browse)")
		}
		return label + fieldValueStyle.Render(v.File.Name)
	default:
		label := fieldNameStyle.Render(padRight(name, nameW)) + "  "
		if a.editing && idx == a.fieldCursor {
			return label + queryStyle.Render(a.editBuffer+"▌")
		}
		if v.Text == "" {
			return label + emptyValueStyle.Render("(empty)")
		}
		return label + fieldValueStyle.Render(v.Text)
	}
}

// outcomeLines surfaces the last submission's result under the form. The
// engine's error detail is shown as-is.
func (a App) outcomeLines(width int) []string {
	var lines []string
	if a.sess.InFlight() {
		lines = append(lines, pendingStyle.Render("⋯ running"))
	}
	if errText := a.sess.LastError(); errText != "" {
		lines = append(lines, failedStyle.Width(width).Render("✗ "+errText))
	} else if a.sess.LastSuccess() {
		lines = append(lines, finishedStyle.Render("✓ finished"))
	}
	return lines
}

// ---------------------------------------------------------------------------
// History tab
// ---------------------------------------------------------------------------

func (a App) historyView() string {
	records := a.sess.Records()
	if len(records) == 0 {
		return a.renderSection("History", emptyValueStyle.Render("No runs yet."))
	}
	content := renderRunTable(records, a.histCursor, a.histTop,
		a.visibleHistoryRows(), a.sectionContentWidth())
	return a.renderSection("History", content)
}

func renderRunTable(records []history.Record, cursor, topIndex, visible, width int) string {
	timeWidth := 8
	cmdWidth := 14
	secsWidth := 7
	fileWidth := width - 2 - 2 - timeWidth - cmdWidth - secsWidth - 8
	if fileWidth < 10 {
		fileWidth = 10
	}

	header := fmt.Sprintf("     %-*s  %-*s  %*s  %-*s",
		timeWidth, "Time", cmdWidth, "Command", secsWidth, "Secs", fileWidth, "File")
	lines := []string{tableHeaderStyle.Render(header)}

	end := topIndex + visible
	if end > len(records) {
		end = len(records)
	}
	for i := topIndex; i < end; i++ {
		rec := records[i]
		prefix := "  "
		if i == cursor {
			prefix = cursorStyle.Render("> ")
		}
		icon := statusIcon(rec.Status)
		timeField := rec.CreatedAt.Local().Format("15:04:05")
		cmdField := padRight(truncate(rec.Command, cmdWidth), cmdWidth)
		secsField := strings.Repeat(" ", secsWidth)
		if rec.Status.Settled() {
			secsField = fmt.Sprintf("%*.2f", secsWidth, rec.ExecutionSeconds)
		}
		fileField := padRight(truncate(rec.Filename, fileWidth), fileWidth)
		lines = append(lines, prefix+icon+"  "+timeField+"  "+cmdField+"  "+secsField+"  "+fileField)
	}

	if total := len(records); total > 0 && visible > 0 {
		lines = append(lines, scrollStyle.Render(
			fmt.Sprintf("── showing %d-%d of %d ──", topIndex+1, end, total)))
	}
	return strings.Join(lines, "\n")
}

func statusIcon(s history.Status) string {
	switch s {
	case history.StatusFinished:
		return finishedStyle.Render("✓")
	case history.StatusError:
		return failedStyle.Render("✗")
	default:
		return pendingStyle.Render("⋯")
	}
}

// ---------------------------------------------------------------------------
// File-picker modal
// ---------------------------------------------------------------------------

func (a App) composeModal(base, statusLine, footer string) string {
	baseView := a.placeWithFooter(base, statusLine, footer)
	if a.height == 0 || a.width == 0 {
		return baseView + "\n\n" + a.pickerView()
	}
	modalContent := lipgloss.NewStyle().Width(a.fileList.Width()).Render(a.pickerView())
	modal := modalStyle.Render(modalContent)
	lines := splitLines(modal)
	modalWidth := maxLineWidth(lines)
	modalHeight := len(lines)

	targetHeight := a.height - 2
	if targetHeight < 1 {
		targetHeight = 1
	}
	x := (a.width - modalWidth) / 2
	if x < 0 {
		x = 0
	}
	y := (targetHeight - modalHeight) / 2
	if y < 0 {
		y = 0
	}
	return overlayAt(baseView, modal, x, y, a.width, targetHeight)
}

func (a App) pickerView() string {
	if !a.listReady {
		return "Scanning for .pdb files..."
	}
	if len(a.fileList.Items()) == 0 {
		return "No .pdb files in " + a.pdbDir
	}
	return a.fileList.View()
}
