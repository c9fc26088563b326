package screens

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/config"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/repository"
)

// Deps is what every screen may reach for.
type Deps struct {
	Sync        *crmsync.Service
	Client      *api.Client
	Tasks       *repository.TaskRepo
	Journal     *repository.SyncEventRepo
	Config      *config.Config
	Log         *zap.Logger
	SessionPath string
	Alerts      *Alerts
}

// RequestContext bounds a remote call started from a tea.Cmd.
func (d *Deps) RequestContext() (context.Context, context.CancelFunc) {
	timeout := 40 * time.Second
	if d.Config != nil && d.Config.RequestTimeout.Duration > 0 {
		timeout = d.Config.RequestTimeout.Duration
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (d *Deps) Logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// NavigateMsg is sent when navigation to another screen is requested
type NavigateMsg struct {
	Screen string
	DealID string
	// FunnelID selects the funnel to edit; empty on the funnel screen means a new one.
	FunnelID string
}

func Navigate(screen string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen}
	}
}

func NavigateWithDeal(screen, dealID string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen, DealID: dealID}
	}
}

func NavigateWithFunnel(screen, funnelID string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen, FunnelID: funnelID}
	}
}

// RefreshMsg is sent when data should be refreshed
type RefreshMsg struct{}

func Refresh() tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{}
	}
}

// UnauthorizedMsg sends the app back to the login screen.
type UnauthorizedMsg struct{}

// SyncDoneMsg carries the outcome of an op.Sync run in the background. The
// app handles it whatever screen is showing.
type SyncDoneMsg struct {
	Action string
	ID     string
	Err    error
}

// runSync issues the remote half of an optimistic op.
func (d *Deps) runSync(op *crmsync.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := d.RequestContext()
		defer cancel()
		return SyncDoneMsg{Action: op.Action(), ID: op.EntityID(), Err: op.Sync(ctx)}
	}
}

// Alerts is the blocking alert dialog. Messages queue up and the app shows
// them one at a time, swallowing keys until each one is dismissed.
type Alerts struct {
	queue []string
}

func (a *Alerts) Alert(message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	a.queue = append(a.queue, message)
}

func (a *Alerts) Active() bool { return len(a.queue) > 0 }

func (a *Alerts) Current() string {
	if len(a.queue) == 0 {
		return ""
	}
	return a.queue[0]
}

func (a *Alerts) Dismiss() {
	if len(a.queue) > 0 {
		a.queue = a.queue[1:]
	}
}

func (a *Alerts) View(width int) string {
	if !a.Active() {
		return ""
	}
	w := 50
	if width > 0 && width-4 < w {
		w = max(20, width-4)
	}
	return AlertStyle.Width(w).Render(a.Current() + "\n\n" + DimStyle.Render("[enter] OK"))
}

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	AlertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 2)

	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("238")).
			PaddingRight(1)
)
