package screens

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type frameMsg struct{ handle int }

// teaFrames schedules auto-scroll frames as tea.Tick commands. Cancelled
// handles are simply ignored when their tick arrives.
type teaFrames struct {
	interval time.Duration
	next     int
	pending  map[int]func()
	cmds     []tea.Cmd
}

func newTeaFrames(interval time.Duration) *teaFrames {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &teaFrames{interval: interval, pending: map[int]func(){}}
}

func (f *teaFrames) Request(fn func()) int {
	f.next++
	h := f.next
	f.pending[h] = fn
	f.cmds = append(f.cmds, tea.Tick(f.interval, func(time.Time) tea.Msg {
		return frameMsg{handle: h}
	}))
	return h
}

func (f *teaFrames) Cancel(h int) {
	delete(f.pending, h)
}

// fire runs the callback of h if it is still pending.
func (f *teaFrames) fire(h int) bool {
	fn, ok := f.pending[h]
	if !ok {
		return false
	}
	delete(f.pending, h)
	fn()
	return true
}

// take hands the ticks requested since the last call to bubbletea.
func (f *teaFrames) take() tea.Cmd {
	if len(f.cmds) == 0 {
		return nil
	}
	cmds := f.cmds
	f.cmds = nil
	return tea.Batch(cmds...)
}
