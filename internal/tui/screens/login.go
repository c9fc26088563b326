package screens

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
)

const msgLogin = "Invalid email or password."

type Login struct {
	deps   *Deps
	width  int
	height int

	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
}

func NewLogin(deps *Deps) *Login {
	email := textinput.New()
	email.Placeholder = "email@company.com"
	email.CharLimit = 120
	email.Width = 40

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 120
	password.Width = 40

	return &Login{deps: deps, email: email, password: password}
}

func (l *Login) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// LoggedInMsg is sent once the session cookie has been stored.
type LoggedInMsg struct {
	Name string
}

type loginFailedMsg struct{ err error }

func (l *Login) Init() tea.Cmd {
	l.busy = false
	l.password.SetValue("")
	l.focus = 0
	l.password.Blur()
	l.email.Focus()
	return textinput.Blink
}

func (l *Login) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginFailedMsg:
		l.busy = false
		fallback := msgLogin
		if !errors.Is(msg.err, api.ErrUnauthorized) && api.ServerMessage(msg.err) == "" {
			fallback = "Could not reach the server."
		}
		crmsync.Alert(l.deps.Alerts, msg.err, fallback)
		return nil

	case tea.KeyMsg:
		if l.busy {
			return nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			l.toggleFocus()
			return nil
		case "enter":
			if l.focus == 0 {
				l.toggleFocus()
				return nil
			}
			return l.submit()
		}
	}

	var cmd tea.Cmd
	if l.focus == 0 {
		l.email, cmd = l.email.Update(msg)
	} else {
		l.password, cmd = l.password.Update(msg)
	}
	return cmd
}

func (l *Login) toggleFocus() {
	if l.focus == 0 {
		l.focus = 1
		l.email.Blur()
		l.password.Focus()
	} else {
		l.focus = 0
		l.password.Blur()
		l.email.Focus()
	}
}

func (l *Login) submit() tea.Cmd {
	creds := api.Credentials{
		Email:    strings.TrimSpace(l.email.Value()),
		Password: l.password.Value(),
	}
	if creds.Email == "" || creds.Password == "" {
		l.deps.Alerts.Alert("Fill in email and password.")
		return nil
	}
	l.busy = true

	return func() tea.Msg {
		ctx, cancel := l.deps.RequestContext()
		defer cancel()

		if err := l.deps.Client.Login(ctx, creds); err != nil {
			return loginFailedMsg{err: err}
		}
		if err := l.deps.Client.SaveSession(l.deps.SessionPath); err != nil {
			l.deps.Logger().Warn("save session failed", zap.Error(err))
		}
		me, err := l.deps.Client.Me(ctx)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return LoggedInMsg{Name: me.Name}
	}
}

func (l *Login) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("LINTRA"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Sign in to continue"))
	b.WriteString("\n\n")

	b.WriteString("Email     ")
	b.WriteString(l.email.View())
	b.WriteString("\n")
	b.WriteString("Password  ")
	b.WriteString(l.password.View())
	b.WriteString("\n")

	if l.busy {
		b.WriteString("\nSigning in...\n")
	}

	b.WriteString(HelpStyle.Render("[tab] Next field  [enter] Sign in  [ctrl+c] Quit"))
	return b.String()
}
