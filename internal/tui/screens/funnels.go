package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gabrielrodrigueslb/lintra/internal/board"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

type funnelsMode int

const (
	funnelsModeList funnelsMode = iota
	funnelsModeEdit
	funnelsModeAddStage
	funnelsModeDelete
)

// Funnels lists funnels, switches the active one and edits their stages.
type Funnels struct {
	deps   *Deps
	width  int
	height int

	cursor  int
	mode    funnelsMode
	message string
	busy    bool

	// editor
	editingID string // empty for a new funnel
	name      textinput.Model
	stageName textinput.Model
	editor    *board.StageEditor
	stageCur  int
	colorIdx  int
	nameFocus bool
}

func NewFunnels(deps *Deps) *Funnels {
	name := textinput.New()
	name.Placeholder = "Funnel name"
	name.CharLimit = 100
	name.Width = 40

	stage := textinput.New()
	stage.Placeholder = "Stage name"
	stage.CharLimit = 60
	stage.Width = 30

	return &Funnels{deps: deps, name: name, stageName: stage}
}

func (f *Funnels) SetSize(width, height int) {
	f.width = width
	f.height = height
}

type funnelSwitchedMsg struct{ err error }

type funnelCreatedMsg struct {
	funnel models.Funnel
	err    error
}

func (f *Funnels) Init() tea.Cmd {
	f.mode = funnelsModeList
	f.message = ""
	f.busy = false
	funnels := f.deps.Sync.Store().Funnels()
	for i, fn := range funnels {
		if fn.ID == f.deps.Sync.Store().ActiveFunnelID() {
			f.cursor = i
		}
	}
	return nil
}

// Edit opens the editor on id, or on a new funnel when id is empty.
func (f *Funnels) Edit(id string) {
	f.editingID = id
	f.name.SetValue("")
	var stages []models.Stage
	if fn, ok := f.deps.Sync.Store().Funnel(id); ok && id != "" {
		f.name.SetValue(fn.Name)
		stages = fn.Stages
	}
	f.editor = board.NewStageEditor(stages)
	f.stageCur = 0
	f.colorIdx = len(board.PresetColors) - 1
	f.nameFocus = true
	f.name.Focus()
	f.mode = funnelsModeEdit
}

func (f *Funnels) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case funnelSwitchedMsg:
		f.busy = false
		if msg.err != nil {
			crmsync.Alert(f.deps.Alerts, msg.err, crmsync.MsgLoad)
			return nil
		}
		return Navigate("board")

	case funnelCreatedMsg:
		f.busy = false
		if msg.err != nil {
			crmsync.Alert(f.deps.Alerts, msg.err, crmsync.MsgSaveFunnel)
			return nil
		}
		f.mode = funnelsModeList
		f.message = fmt.Sprintf("Created funnel: %s", msg.funnel.Name)
		return nil

	case tea.KeyMsg:
		if f.busy {
			return nil
		}
		switch f.mode {
		case funnelsModeList:
			return f.handleListKey(msg)
		case funnelsModeEdit:
			return f.handleEditKey(msg)
		case funnelsModeAddStage:
			return f.handleAddStageKey(msg)
		case funnelsModeDelete:
			return f.handleDeleteKey(msg)
		}
	}

	switch f.mode {
	case funnelsModeEdit:
		if f.nameFocus {
			var cmd tea.Cmd
			f.name, cmd = f.name.Update(msg)
			return cmd
		}
	case funnelsModeAddStage:
		var cmd tea.Cmd
		f.stageName, cmd = f.stageName.Update(msg)
		return cmd
	}
	return nil
}

func (f *Funnels) handleListKey(msg tea.KeyMsg) tea.Cmd {
	funnels := f.deps.Sync.Store().Funnels()
	switch msg.String() {
	case "up", "k":
		if f.cursor > 0 {
			f.cursor--
		}
	case "down", "j":
		if f.cursor < len(funnels)-1 {
			f.cursor++
		}
	case "enter":
		if f.cursor < len(funnels) {
			id := funnels[f.cursor].ID
			f.busy = true
			return func() tea.Msg {
				ctx, cancel := f.deps.RequestContext()
				defer cancel()
				_, err := f.deps.Sync.SwitchFunnel(ctx, id)
				return funnelSwitchedMsg{err: err}
			}
		}
	case "n", "a":
		f.Edit("")
	case "e":
		if f.cursor < len(funnels) {
			f.Edit(funnels[f.cursor].ID)
		}
	case "d":
		if f.cursor < len(funnels) {
			f.mode = funnelsModeDelete
		}
	case "q", "esc":
		return Navigate("board")
	}
	return nil
}

func (f *Funnels) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if f.editor.DraggedIndex() >= 0 {
			f.editor.DropAt(f.editor.DraggedIndex())
			return nil
		}
		f.name.Blur()
		f.mode = funnelsModeList
		return nil
	case "tab":
		f.nameFocus = !f.nameFocus
		if f.nameFocus {
			f.name.Focus()
		} else {
			f.name.Blur()
		}
		return nil
	case "enter":
		return f.save()
	}

	if f.nameFocus {
		var cmd tea.Cmd
		f.name, cmd = f.name.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "up", "k":
		if f.stageCur > 0 {
			f.stageCur--
		}
	case "down", "j":
		if f.stageCur < f.editor.Len()-1 {
			f.stageCur++
		}
	case "K", "shift+up":
		if f.stageCur > 0 {
			f.editor.Move(f.stageCur, f.stageCur-1)
			f.stageCur--
		}
	case "J", "shift+down":
		if f.stageCur < f.editor.Len()-1 {
			f.editor.Move(f.stageCur, f.stageCur+1)
			f.stageCur++
		}
	case " ":
		if f.editor.DraggedIndex() < 0 {
			f.editor.BeginDrag(f.stageCur)
		} else {
			f.editor.DropAt(f.stageCur)
		}
	case "a":
		f.stageName.SetValue("")
		f.stageName.Focus()
		f.colorIdx = len(board.PresetColors) - 1
		f.mode = funnelsModeAddStage
	case "x", "delete":
		f.editor.Remove(f.stageCur)
		f.stageCur = min(f.stageCur, max(0, f.editor.Len()-1))
	}
	return nil
}

func (f *Funnels) handleAddStageKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		f.stageName.Blur()
		f.mode = funnelsModeEdit
		return nil
	case "left":
		f.colorIdx = (f.colorIdx - 1 + len(board.PresetColors)) % len(board.PresetColors)
		return nil
	case "right":
		f.colorIdx = (f.colorIdx + 1) % len(board.PresetColors)
		return nil
	case "enter":
		if err := f.editor.Add(f.stageName.Value(), board.PresetColors[f.colorIdx]); err != nil {
			crmsync.Alert(f.deps.Alerts, err, "")
			return nil
		}
		f.stageCur = f.editor.Len() - 1
		f.stageName.Blur()
		f.mode = funnelsModeEdit
		return nil
	}
	var cmd tea.Cmd
	f.stageName, cmd = f.stageName.Update(msg)
	return cmd
}

func (f *Funnels) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		f.mode = funnelsModeList
		funnels := f.deps.Sync.Store().Funnels()
		if f.cursor >= len(funnels) {
			return nil
		}
		target := funnels[f.cursor]
		op, err := f.deps.Sync.DeleteFunnel(target.ID)
		if err != nil {
			crmsync.Alert(f.deps.Alerts, err, crmsync.MsgDeleteFunnel)
			return nil
		}
		f.message = fmt.Sprintf("Deleted funnel: %s", target.Name)
		f.cursor = min(f.cursor, max(0, len(funnels)-2))
		return f.deps.runSync(op)
	case "n", "N", "esc":
		f.mode = funnelsModeList
	}
	return nil
}

// save validates before any remote call is made.
func (f *Funnels) save() tea.Cmd {
	in, err := f.editor.Input(f.name.Value())
	if err != nil {
		crmsync.Alert(f.deps.Alerts, err, crmsync.MsgSaveFunnel)
		return nil
	}

	if f.editingID == "" {
		f.busy = true
		return func() tea.Msg {
			ctx, cancel := f.deps.RequestContext()
			defer cancel()
			created, err := f.deps.Sync.CreateFunnel(ctx, in)
			return funnelCreatedMsg{funnel: created, err: err}
		}
	}

	op, err := f.deps.Sync.UpdateFunnel(f.editingID, in)
	if err != nil {
		crmsync.Alert(f.deps.Alerts, err, crmsync.MsgSaveFunnel)
		return nil
	}
	f.name.Blur()
	f.mode = funnelsModeList
	f.message = fmt.Sprintf("Updated funnel: %s", in.Name)
	return f.deps.runSync(op)
}

func (f *Funnels) View() string {
	var b strings.Builder

	switch f.mode {
	case funnelsModeEdit, funnelsModeAddStage:
		return f.editorView()
	}

	b.WriteString(TitleStyle.Render("FUNNELS"))
	b.WriteString("\n\n")

	if f.busy {
		b.WriteString("Working...\n\n")
	}
	if f.message != "" {
		b.WriteString(SuccessStyle.Render(f.message))
		b.WriteString("\n\n")
	}

	funnels := f.deps.Sync.Store().Funnels()
	if f.mode == funnelsModeDelete && f.cursor < len(funnels) {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Delete funnel '%s'? (y/n)", funnels[f.cursor].Name)))
		b.WriteString("\n")
		return b.String()
	}

	if len(funnels) == 0 {
		b.WriteString(DimStyle.Render("No funnels yet."))
		b.WriteString("\n\n")
	}
	active := f.deps.Sync.Store().ActiveFunnelID()
	for i, fn := range funnels {
		cursor := "  "
		style := NormalStyle
		if i == f.cursor {
			cursor = "> "
			style = SelectedStyle
		}
		mark := ""
		if fn.ID == active {
			mark = " ●"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s (%d stages)%s", cursor, fn.Name, len(fn.Stages), mark)))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("[enter] Open  [n] New  [e] Edit  [d] Delete  [q] Back"))
	return b.String()
}

func (f *Funnels) editorView() string {
	var b strings.Builder

	title := "NEW FUNNEL"
	if f.editingID != "" {
		title = "EDIT FUNNEL"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString("Name: ")
	b.WriteString(f.name.View())
	b.WriteString("\n\n")
	b.WriteString(SubtitleStyle.Render("Stages"))
	b.WriteString("\n")

	dragged := f.editor.DraggedIndex()
	for i, st := range f.editor.Stages() {
		cursor := "  "
		style := NormalStyle
		if !f.nameFocus && i == f.stageCur {
			cursor = "> "
			style = SelectedStyle
		}
		if i == dragged {
			cursor = "⇅ "
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(st.Color)).Render("■")
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, swatch, style.Render(st.Name)))
	}
	if f.editor.Len() == 0 {
		b.WriteString(DimStyle.Render("  No stages."))
		b.WriteString("\n")
	}

	if f.mode == funnelsModeAddStage {
		color := board.PresetColors[f.colorIdx]
		b.WriteString("\nNew stage: ")
		b.WriteString(f.stageName.View())
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■ " + color))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[←→] Color  [enter] Add  [esc] Cancel"))
		return b.String()
	}

	help := "[tab] Name/stages  [a] Add stage  [x] Remove  [space] Pick/drop  [J/K] Move  [enter] Save  [esc] Cancel"
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}
