package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

type tasksMode int

const (
	tasksModeList tasksMode = iota
	tasksModeAdd
	tasksModeDelete
)

// filter tabs; the empty status lists everything
var taskFilters = []models.TaskStatus{"", models.TaskPending, models.TaskInProgress, models.TaskCompleted}

var taskPriorities = []models.TaskPriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}

type Tasks struct {
	deps   *Deps
	width  int
	height int

	tasks       []models.Task
	filter      int
	cursor      int
	mode        tasksMode
	input       textinput.Model
	priorityIdx int
	loading     bool
	err         error
	message     string
}

func NewTasks(deps *Deps) *Tasks {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 200
	ti.Width = 50

	return &Tasks{deps: deps, input: ti, priorityIdx: 1}
}

func (t *Tasks) SetSize(width, height int) {
	t.width = width
	t.height = height
}

type tasksDataMsg struct {
	tasks []models.Task
	err   error
}

func (t *Tasks) Init() tea.Cmd {
	t.loading = true
	t.mode = tasksModeList
	t.message = ""
	return t.loadData
}

func (t *Tasks) loadData() tea.Msg {
	tasks, err := t.deps.Tasks.List(taskFilters[t.filter])
	return tasksDataMsg{tasks: tasks, err: err}
}

func (t *Tasks) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tasksDataMsg:
		t.loading = false
		t.err = msg.err
		t.tasks = msg.tasks
		if t.cursor >= len(t.tasks) {
			t.cursor = max(0, len(t.tasks)-1)
		}
		return nil

	case RefreshMsg:
		return t.Init()

	case tea.KeyMsg:
		switch t.mode {
		case tasksModeList:
			return t.handleListKey(msg)
		case tasksModeAdd:
			return t.handleInputKey(msg)
		case tasksModeDelete:
			return t.handleDeleteKey(msg)
		}
	}

	if t.mode == tasksModeAdd {
		var cmd tea.Cmd
		t.input, cmd = t.input.Update(msg)
		return cmd
	}
	return nil
}

func (t *Tasks) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if t.cursor > 0 {
			t.cursor--
		}
	case "down", "j":
		if t.cursor < len(t.tasks)-1 {
			t.cursor++
		}
	case "tab", "f":
		t.filter = (t.filter + 1) % len(taskFilters)
		return t.loadData
	case "a":
		t.mode = tasksModeAdd
		t.input.SetValue("")
		t.priorityIdx = 1
		t.input.Focus()
	case " ", "x":
		if len(t.tasks) > 0 {
			task := t.tasks[t.cursor]
			status, err := t.deps.Tasks.ToggleStatus(task.ID)
			if err != nil {
				t.err = err
				return nil
			}
			t.message = fmt.Sprintf("%s: %s", task.Title, status)
			return t.loadData
		}
	case "d":
		if len(t.tasks) > 0 {
			t.mode = tasksModeDelete
		}
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (t *Tasks) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(t.input.Value())
		if title == "" {
			t.mode = tasksModeList
			return nil
		}
		_, err := t.deps.Tasks.Create(models.Task{Title: title, Priority: taskPriorities[t.priorityIdx]})
		if err != nil {
			t.err = err
		} else {
			t.message = fmt.Sprintf("Created task: %s", title)
		}
		t.mode = tasksModeList
		t.input.Blur()
		return t.loadData
	case "tab":
		t.priorityIdx = (t.priorityIdx + 1) % len(taskPriorities)
		return nil
	case "esc":
		t.mode = tasksModeList
		t.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

func (t *Tasks) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		task := t.tasks[t.cursor]
		if err := t.deps.Tasks.Delete(task.ID); err != nil {
			t.err = err
		} else {
			t.message = fmt.Sprintf("Deleted task: %s", task.Title)
		}
		t.mode = tasksModeList
		return t.loadData
	case "n", "N", "esc":
		t.mode = tasksModeList
	}
	return nil
}

func priorityStyle(p models.TaskPriority) string {
	switch p {
	case models.PriorityHigh:
		return ErrorStyle.Render("high  ")
	case models.PriorityMedium:
		return WarningStyle.Render("medium")
	default:
		return DimStyle.Render("low   ")
	}
}

func (t *Tasks) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("TASKS"))
	b.WriteString("\n")

	tabs := make([]string, len(taskFilters))
	for i, f := range taskFilters {
		name := string(f)
		if name == "" {
			name = "all"
		}
		if i == t.filter {
			tabs[i] = SelectedStyle.Render("[" + name + "]")
		} else {
			tabs[i] = DimStyle.Render(" " + name + " ")
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	if t.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if t.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", t.err)))
		b.WriteString("\n\n")
		t.err = nil
	}

	if t.message != "" {
		b.WriteString(SuccessStyle.Render(t.message))
		b.WriteString("\n\n")
	}

	if t.mode == tasksModeAdd {
		b.WriteString("New task:\n")
		b.WriteString(t.input.View())
		b.WriteString("\n")
		b.WriteString("Priority: " + priorityStyle(taskPriorities[t.priorityIdx]))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[tab] Priority  [enter] Save  [esc] Cancel"))
		return b.String()
	}

	if t.mode == tasksModeDelete && len(t.tasks) > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Delete task '%s'? (y/n)", t.tasks[t.cursor].Title)))
		b.WriteString("\n")
		return b.String()
	}

	if len(t.tasks) == 0 {
		b.WriteString(DimStyle.Render("No tasks."))
		b.WriteString("\n\n")
	}
	for i, task := range t.tasks {
		cursor := "  "
		style := NormalStyle
		if i == t.cursor {
			cursor = "> "
			style = SelectedStyle
		}
		check := "[ ]"
		switch task.Status {
		case models.TaskCompleted:
			check = "[x]"
			style = DimStyle
		case models.TaskInProgress:
			check = "[~]"
		}
		due := ""
		if !task.DueDate.IsZero() {
			due = DimStyle.Render("  due " + task.DueDate.Format("02/01"))
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s%s\n", cursor, check, priorityStyle(task.Priority), style.Render(task.Title), due))
	}

	b.WriteString(HelpStyle.Render("[a] Add  [space] Done/undo  [tab] Filter  [d] Delete  [q] Back"))
	return b.String()
}
