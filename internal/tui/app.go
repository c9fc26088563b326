package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/tui/screens"
)

const msgSyncFailed = "Failed to sync with the server."

type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
	ScreenBoard
	ScreenDeal
	ScreenDealForm
	ScreenFunnels
	ScreenContacts
	ScreenTasks
)

type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
}

type App struct {
	deps          *screens.Deps
	currentScreen Screen
	checking      bool
	width         int
	height        int

	// Screen models
	login     *screens.Login
	dashboard *screens.Dashboard
	board     *screens.Board
	deal      *screens.DealDetails
	dealForm  *screens.DealForm
	funnels   *screens.Funnels
	contacts  *screens.Contacts
	tasks     *screens.Tasks
}

func NewApp(deps *screens.Deps) *App {
	if deps.Alerts == nil {
		deps.Alerts = &screens.Alerts{}
	}
	a := &App{
		deps:          deps,
		currentScreen: ScreenLogin,
		checking:      true,
	}
	a.login = screens.NewLogin(deps)
	a.dashboard = screens.NewDashboard(deps)
	a.board = screens.NewBoard(deps)
	a.deal = screens.NewDealDetails(deps)
	a.dealForm = screens.NewDealForm(deps)
	a.funnels = screens.NewFunnels(deps)
	a.contacts = screens.NewContacts(deps)
	a.tasks = screens.NewTasks(deps)
	return a
}

type sessionMsg struct {
	user api.User
	err  error
}

type loggedOutMsg struct{}

func (a *App) Init() tea.Cmd {
	return a.checkSession
}

// checkSession decides between the login screen and the dashboard.
func (a *App) checkSession() tea.Msg {
	ctx, cancel := a.deps.RequestContext()
	defer cancel()
	user, err := a.deps.Client.Me(ctx)
	return sessionMsg{user: user, err: err}
}

func (a *App) screen(s Screen) screen {
	switch s {
	case ScreenDashboard:
		return a.dashboard
	case ScreenBoard:
		return a.board
	case ScreenDeal:
		return a.deal
	case ScreenDealForm:
		return a.dealForm
	case ScreenFunnels:
		return a.funnels
	case ScreenContacts:
		return a.contacts
	case ScreenTasks:
		return a.tasks
	default:
		return a.login
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// the alert dialog blocks everything until dismissed
	if a.deps.Alerts.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch msg.String() {
			case "ctrl+c":
				return a, tea.Quit
			case "enter", "esc", " ":
				a.deps.Alerts.Dismiss()
			}
			return a, nil
		case tea.MouseMsg:
			return a, nil
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.currentScreen == ScreenDashboard {
				return a, tea.Quit
			}
			// Let individual screens handle 'q' for going back
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for s := ScreenLogin; s <= ScreenTasks; s++ {
			a.screen(s).SetSize(msg.Width, msg.Height)
		}

	case sessionMsg:
		a.checking = false
		if msg.err != nil {
			if !errors.Is(msg.err, api.ErrUnauthorized) {
				a.deps.Logger().Warn("session check failed", zap.Error(msg.err))
			}
			return a.show(ScreenLogin)
		}
		a.dashboard.SetUser(msg.user.Name)
		return a.show(ScreenDashboard)

	case screens.LoggedInMsg:
		a.dashboard.SetUser(msg.Name)
		return a.show(ScreenDashboard)

	case screens.UnauthorizedMsg:
		return a.show(ScreenLogin)

	case loggedOutMsg:
		a.dashboard.SetUser("")
		return a.show(ScreenLogin)

	case screens.SyncDoneMsg:
		if msg.Err != nil {
			crmsync.Alert(a.deps.Alerts, msg.Err, msgSyncFailed)
			if errors.Is(msg.Err, api.ErrUnauthorized) {
				return a.show(ScreenLogin)
			}
		}
		return a, nil

	case screens.NavigateMsg:
		return a.handleNavigation(msg)
	}

	if a.checking {
		return a, nil
	}
	return a, a.screen(a.currentScreen).Update(msg)
}

func (a *App) show(s Screen) (tea.Model, tea.Cmd) {
	a.currentScreen = s
	return a, a.screen(s).Init()
}

func (a *App) handleNavigation(msg screens.NavigateMsg) (tea.Model, tea.Cmd) {
	switch msg.Screen {
	case "dashboard":
		return a.show(ScreenDashboard)
	case "board":
		return a.show(ScreenBoard)
	case "deal":
		a.deal.SetDeal(msg.DealID)
		return a.show(ScreenDeal)
	case "deal-form":
		a.dealForm.SetDeal(msg.DealID)
		return a.show(ScreenDealForm)
	case "funnels":
		m, cmd := a.show(ScreenFunnels)
		if msg.FunnelID != "" {
			a.funnels.Edit(msg.FunnelID)
		}
		return m, cmd
	case "contacts":
		return a.show(ScreenContacts)
	case "tasks":
		return a.show(ScreenTasks)
	case "logout":
		return a, a.logout
	}
	return a, nil
}

func (a *App) logout() tea.Msg {
	ctx, cancel := a.deps.RequestContext()
	defer cancel()
	if err := a.deps.Client.Logout(ctx); err != nil {
		a.deps.Logger().Warn("logout failed", zap.Error(err))
	}
	if err := api.ClearSession(a.deps.SessionPath); err != nil {
		a.deps.Logger().Warn("clear session failed", zap.Error(err))
	}
	return loggedOutMsg{}
}

func (a *App) View() string {
	var content string
	if a.checking {
		content = "Checking session..."
	} else {
		content = a.screen(a.currentScreen).View()
	}

	if a.deps.Alerts.Active() {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.deps.Alerts.View(a.width))
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Render(content)
}

func Run(deps *screens.Deps) error {
	app := NewApp(deps)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
