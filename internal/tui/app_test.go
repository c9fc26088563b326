package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/config"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
	"github.com/gabrielrodrigueslb/lintra/internal/tui/screens"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	st := store.New()
	require.True(t, st.AddFunnel(models.Funnel{ID: "f1", Name: "Vendas", Stages: []models.Stage{{ID: "s1", Name: "Lead"}}}))
	deps := &screens.Deps{
		Sync:   crmsync.New(st, nil),
		Config: config.DefaultConfig(),
	}
	a := NewApp(deps)
	// session check answered
	a.Update(sessionMsg{user: api.User{ID: "u1", Name: "Ana"}})
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSessionCheckRoutes(t *testing.T) {
	a := newTestApp(t)
	assert.False(t, a.checking)
	assert.Equal(t, ScreenDashboard, a.currentScreen)

	a.Update(screens.UnauthorizedMsg{})
	assert.Equal(t, ScreenLogin, a.currentScreen)

	a.Update(screens.LoggedInMsg{Name: "Ana"})
	assert.Equal(t, ScreenDashboard, a.currentScreen)
}

func TestUnauthorizedSessionShowsLogin(t *testing.T) {
	deps := &screens.Deps{Sync: crmsync.New(store.New(), nil), Config: config.DefaultConfig()}
	a := NewApp(deps)
	assert.Contains(t, a.View(), "Checking session")

	a.Update(sessionMsg{err: fmt.Errorf("me: %w", api.ErrUnauthorized)})
	assert.Equal(t, ScreenLogin, a.currentScreen)
}

func TestNavigation(t *testing.T) {
	a := newTestApp(t)

	a.Update(screens.NavigateMsg{Screen: "board"})
	assert.Equal(t, ScreenBoard, a.currentScreen)

	a.Update(screens.NavigateMsg{Screen: "funnels", FunnelID: "f1"})
	assert.Equal(t, ScreenFunnels, a.currentScreen)

	a.Update(screens.NavigateMsg{Screen: "nowhere"})
	assert.Equal(t, ScreenFunnels, a.currentScreen)
}

func TestFailedSyncRaisesBlockingAlert(t *testing.T) {
	a := newTestApp(t)
	a.Update(screens.NavigateMsg{Screen: "board"})

	err := &crmsync.SyncError{Action: "move", Entity: "deal", EntityID: "d1", Fallback: crmsync.MsgMoveDeal, Err: fmt.Errorf("boom")}
	a.Update(screens.SyncDoneMsg{Action: "move", ID: "d1", Err: err})
	require.True(t, a.deps.Alerts.Active())
	assert.Equal(t, crmsync.MsgMoveDeal, a.deps.Alerts.Current())
	assert.Contains(t, a.View(), crmsync.MsgMoveDeal)

	// keys do not reach the board while the alert is up
	_, cmd := a.Update(runes("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, ScreenBoard, a.currentScreen)

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, a.deps.Alerts.Active())
}

func TestSuccessfulSyncIsSilent(t *testing.T) {
	a := newTestApp(t)
	a.Update(screens.SyncDoneMsg{Action: "move", ID: "d1"})
	assert.False(t, a.deps.Alerts.Active())
}

func TestUnauthorizedSyncReturnsToLogin(t *testing.T) {
	a := newTestApp(t)
	a.Update(screens.NavigateMsg{Screen: "board"})
	a.Update(screens.SyncDoneMsg{Action: "update", ID: "d1", Err: api.ErrUnauthorized})
	assert.Equal(t, ScreenLogin, a.currentScreen)
	assert.True(t, a.deps.Alerts.Active())
}

func TestQuitOnlyFromDashboard(t *testing.T) {
	a := newTestApp(t)
	_, cmd := a.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
