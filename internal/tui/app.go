// Package tui is the interactive front end: a command list with fuzzy
// filtering, a form for the selected command's arguments and flags, a
// structure-file picker, and the execution history ledger.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/XRed8X/PDB-Engine/internal/form"
	"github.com/XRed8X/PDB-Engine/internal/history"
	"github.com/XRed8X/PDB-Engine/internal/session"
)

// ---------------------------------------------------------------------------
// Tabs and focus
// ---------------------------------------------------------------------------

const (
	tabRun = iota
	tabHistory
	tabCount
)

var tabNames = []string{"Run", "History"}

type focusArea int

const (
	focusCommands focusArea = iota
	focusForm
)

// ---------------------------------------------------------------------------
// File-picker item (implements list.Item)
// ---------------------------------------------------------------------------

type fileItem struct {
	name string
}

func (f fileItem) Title() string       { return f.name }
func (f fileItem) Description() string { return "" }
func (f fileItem) FilterValue() string { return f.name }

type fileItemDelegate struct{}

func (d fileItemDelegate) Height() int  { return 1 }
func (d fileItemDelegate) Spacing() int { return 0 }
func (d fileItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}
func (d fileItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(fileItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = cursorStyle.Render("> ")
	}
	line := fmt.Sprintf("%s%s", prefix, entry.name)
	fmt.Fprint(w, padRight(line, m.Width()))
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

type keyMap struct {
	UpDown   key.Binding
	Select   key.Binding
	Edit     key.Binding
	Toggle   key.Binding
	Submit   key.Binding
	Back     key.Binding
	Filter   key.Binding
	Clear    key.Binding
	Reveal   key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Commit   key.Binding
	Cancel   key.Binding
	Quit     key.Binding
	QuitHard key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		UpDown:   key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "navigate")),
		Select:   key.NewBinding(key.WithKeys("enter", "right"), key.WithHelp("enter", "select")),
		Edit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit/toggle")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		Submit:   key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "run")),
		Back:     key.NewBinding(key.WithKeys("left", "esc"), key.WithHelp("esc", "back")),
		Filter:   key.NewBinding(key.WithHelp("a-z", "filter")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear file")),
		Reveal:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "show path")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Commit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		QuitHard: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ---------------------------------------------------------------------------
// Bubble Tea messages
// ---------------------------------------------------------------------------

type executeDoneMsg struct {
	rec history.Record
	err error
}

type structuresLoadedMsg struct {
	items []list.Item
	err   error
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// App is the Bubble Tea model for the whole client.
type App struct {
	ctx    context.Context
	sess   *session.Session
	pdbDir string

	width  int
	height int

	activeTab int
	focus     focusArea

	query     string
	matches   []string
	cmdCursor int
	cmdTop    int

	fieldCursor int
	editing     bool
	editBuffer  string

	showPicker  bool
	pickerField string
	fileList    list.Model
	listReady   bool

	histCursor int
	histTop    int

	status string
	keys   keyMap
}

// New builds the app over an already-wired session. pdbDir is where the
// structure-file picker looks for .pdb files.
func New(ctx context.Context, sess *session.Session, pdbDir string) App {
	fileList := list.New([]list.Item{}, fileItemDelegate{}, 0, 0)
	fileList.Title = "Structure files"
	fileList.Styles.Title = titleStyle
	fileList.Styles.NoItems = lipgloss.NewStyle()
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(false)
	fileList.SetShowHelp(false)
	fileList.DisableQuitKeybindings()

	return App{
		ctx:       ctx,
		sess:      sess,
		pdbDir:    pdbDir,
		activeTab: tabRun,
		matches:   sess.Commands(),
		fileList:  fileList,
		keys:      newKeyMap(),
	}
}

func (a App) Init() tea.Cmd {
	return nil
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeFileList()
		a.ensureCommandWindow()
		a.ensureHistoryWindow()
		return a, nil

	case structuresLoadedMsg:
		if msg.err != nil {
			a.showPicker = false
			a.status = "Cannot list structures: " + msg.err.Error()
			return a, nil
		}
		a.listReady = true
		cmd := a.fileList.SetItems(msg.items)
		return a, cmd

	case executeDoneMsg:
		if msg.err != nil {
			a.status = "error: " + msg.err.Error()
			return a, nil
		}
		a.status = fmt.Sprintf("%s finished in %.2fs, saved %s",
			msg.rec.Command, msg.rec.ExecutionSeconds, a.sess.SavedPath(msg.rec))
		return a, nil

	case tea.KeyMsg:
		if a.showPicker {
			return a.handlePickerKey(msg)
		}
		if a.editing {
			return a.handleEditKey(msg)
		}
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.QuitHard):
		return a, tea.Quit
	case key.Matches(msg, a.keys.NextTab):
		a.activeTab = (a.activeTab + 1) % tabCount
		a.status = ""
		return a, nil
	case key.Matches(msg, a.keys.PrevTab):
		a.activeTab = (a.activeTab + tabCount - 1) % tabCount
		a.status = ""
		return a, nil
	}
	if a.activeTab == tabHistory {
		return a.handleHistoryKey(msg)
	}
	if a.focus == focusForm {
		return a.handleFormKey(msg)
	}
	return a.handleCommandsKey(msg)
}

// handleCommandsKey drives the command pane. Printable keys feed the
// filter query, so quitting here is ctrl+c only.
func (a App) handleCommandsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		a.cmdCursor--
		a.ensureCommandWindow()
	case tea.KeyDown:
		a.cmdCursor++
		a.ensureCommandWindow()
	case tea.KeyEnter, tea.KeyRight:
		a.selectCurrent()
	case tea.KeyEsc:
		a.query = ""
		a.refilter()
	case tea.KeyBackspace:
		if len(a.query) > 0 {
			a.query = a.query[:len(a.query)-1]
			a.refilter()
		}
	case tea.KeyRunes:
		a.query += string(msg.Runes)
		a.refilter()
	}
	return a, nil
}

func (a *App) refilter() {
	a.matches = rankCommands(a.sess.Commands(), a.query)
	a.cmdCursor = 0
	a.cmdTop = 0
	a.ensureCommandWindow()
}

// selectCurrent activates the command under the cursor and moves focus
// to the form. Re-selecting the active command keeps its field values.
func (a *App) selectCurrent() {
	if len(a.matches) == 0 {
		return
	}
	name := a.matches[a.cmdCursor]
	if name != a.sess.SelectedCommand() {
		a.sess.SelectCommand(name)
		a.fieldCursor = 0
	}
	a.focus = focusForm
}

func (a App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Back):
		a.focus = focusCommands
	case key.Matches(msg, a.keys.UpDown):
		fields := a.sess.Fields()
		if msg.String() == "up" {
			if a.fieldCursor > 0 {
				a.fieldCursor--
			}
		} else if a.fieldCursor < len(fields)-1 {
			a.fieldCursor++
		}
	case key.Matches(msg, a.keys.Submit):
		return a.startSubmit()
	case key.Matches(msg, a.keys.Toggle):
		a.toggleCurrentFlag()
	case key.Matches(msg, a.keys.Clear):
		name := a.currentField()
		if v, ok := a.sess.FieldValue(name); ok && v.Kind == form.KindFile {
			_ = a.sess.SetFile(name, nil)
			a.status = "Cleared " + name
		}
	case key.Matches(msg, a.keys.Edit):
		return a.activateField()
	}
	return a, nil
}

func (a App) currentField() string {
	fields := a.sess.Fields()
	if a.fieldCursor < 0 || a.fieldCursor >= len(fields) {
		return ""
	}
	return fields[a.fieldCursor]
}

func (a *App) toggleCurrentFlag() {
	name := a.currentField()
	if v, ok := a.sess.FieldValue(name); ok && v.Kind == form.KindFlag {
		_ = a.sess.SetFlag(name, !v.Flag)
	}
}

// activateField enters the edit mode matching the field's kind: inline
// text editing, flag toggle, or the structure-file picker.
func (a App) activateField() (tea.Model, tea.Cmd) {
	name := a.currentField()
	if name == "" {
		return a, nil
	}
	v, ok := a.sess.FieldValue(name)
	if !ok {
		return a, nil
	}
	switch v.Kind {
	case form.KindFlag:
		_ = a.sess.SetFlag(name, !v.Flag)
	case form.KindFile:
		a.showPicker = true
		a.pickerField = name
		a.listReady = false
		a.resizeFileList()
		return a, loadStructuresCmd(a.pdbDir)
	case form.KindText:
		a.editing = true
		a.editBuffer = v.Text
	}
	return a, nil
}

func (a App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEsc:
		a.editing = false
		a.editBuffer = ""
	case tea.KeyEnter:
		if name := a.currentField(); name != "" {
			if err := a.sess.SetText(name, strings.TrimSpace(a.editBuffer)); err != nil {
				a.status = "error: " + err.Error()
			}
		}
		a.editing = false
		a.editBuffer = ""
	case tea.KeyBackspace:
		if len(a.editBuffer) > 0 {
			a.editBuffer = a.editBuffer[:len(a.editBuffer)-1]
		}
	case tea.KeySpace:
		a.editBuffer += " "
	case tea.KeyRunes:
		a.editBuffer += string(msg.Runes)
	}
	return a, nil
}

func (a App) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.QuitHard):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Cancel):
		a.showPicker = false
		return a, nil
	case key.Matches(msg, a.keys.Clear):
		if err := a.sess.SetFile(a.pickerField, nil); err == nil {
			a.status = "Cleared " + a.pickerField
		}
		a.showPicker = false
		return a, nil
	case key.Matches(msg, a.keys.Select):
		item, ok := a.fileList.SelectedItem().(fileItem)
		if !ok || item.name == "" {
			a.status = "No file selected."
			return a, nil
		}
		ref := &form.FileRef{Name: item.name, Path: filepath.Join(a.pdbDir, item.name)}
		if err := a.sess.SetFile(a.pickerField, ref); err != nil {
			a.status = "error: " + err.Error()
		} else {
			a.status = "Attached " + item.name
		}
		a.showPicker = false
		return a, nil
	}
	var cmd tea.Cmd
	a.fileList, cmd = a.fileList.Update(msg)
	return a, cmd
}

func (a App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.UpDown):
		if msg.String() == "up" {
			a.histCursor--
		} else {
			a.histCursor++
		}
		a.ensureHistoryWindow()
	case key.Matches(msg, a.keys.Reveal):
		records := a.sess.Records()
		if a.histCursor >= 0 && a.histCursor < len(records) {
			rec := records[a.histCursor]
			switch rec.Status {
			case history.StatusFinished:
				a.status = "Saved to " + a.sess.SavedPath(rec)
			case history.StatusPending:
				a.status = "Still running."
			default:
				a.status = "Run failed, no results."
			}
		}
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (a App) startSubmit() (tea.Model, tea.Cmd) {
	name := a.sess.SelectedCommand()
	if name == "" {
		a.status = "No command selected."
		return a, nil
	}
	a.status = "Running " + name + "..."
	return a, a.submitCmd()
}

func (a App) submitCmd() tea.Cmd {
	ctx, sess := a.ctx, a.sess
	return func() tea.Msg {
		rec, err := sess.Submit(ctx)
		return executeDoneMsg{rec: rec, err: err}
	}
}

func loadStructuresCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return structuresLoadedMsg{err: err}
		}
		var items []list.Item
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasSuffix(strings.ToLower(name), ".pdb") {
				items = append(items, fileItem{name: name})
			}
		}
		return structuresLoadedMsg{items: items}
	}
}
