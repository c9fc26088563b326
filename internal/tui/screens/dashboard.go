package screens

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

const dashboardListSize = 5

type Dashboard struct {
	deps   *Deps
	width  int
	height int

	userName     string
	pendingTasks int
	contacts     []models.Contact
	failures     []models.SyncEvent
	loading      bool
	err          error
}

func NewDashboard(deps *Deps) *Dashboard {
	return &Dashboard{
		deps:    deps,
		loading: true,
	}
}

func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

func (d *Dashboard) SetUser(name string) { d.userName = name }

type dashboardDataMsg struct {
	pendingTasks int
	contacts     []models.Contact
	failures     []models.SyncEvent
	err          error
}

func (d *Dashboard) Init() tea.Cmd {
	d.loading = true
	return d.loadData
}

func (d *Dashboard) loadData() tea.Msg {
	ctx, cancel := d.deps.RequestContext()
	defer cancel()

	svc := d.deps.Sync
	if err := svc.LoadFunnels(ctx); err != nil {
		return dashboardDataMsg{err: err}
	}

	var dir crmsync.Directory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := svc.LoadDeals(gctx, svc.Store().ActiveFunnelID())
		return err
	})
	g.Go(func() error {
		var err error
		dir, err = svc.LoadDirectory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dashboardDataMsg{err: err}
	}

	pending, err := d.deps.Tasks.CountByStatus(models.TaskPending)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	failures, err := d.deps.Journal.Recent(dashboardListSize)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	contacts := dir.Contacts
	if len(contacts) > dashboardListSize {
		contacts = contacts[:dashboardListSize]
	}

	return dashboardDataMsg{
		pendingTasks: pending,
		contacts:     contacts,
		failures:     failures,
	}
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loading = false
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return func() tea.Msg { return UnauthorizedMsg{} }
		}
		d.err = msg.err
		d.pendingTasks = msg.pendingTasks
		d.contacts = msg.contacts
		d.failures = msg.failures
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "b":
			return Navigate("board")
		case "f":
			return Navigate("funnels")
		case "c":
			return Navigate("contacts")
		case "t":
			return Navigate("tasks")
		case "r":
			return d.Init()
		case "L":
			return Navigate("logout")
		}
	}

	return nil
}

func (d *Dashboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("LINTRA"))
	b.WriteString("\n")
	subtitle := "CRM panel"
	if d.userName != "" {
		subtitle = "Signed in as " + d.userName
	}
	b.WriteString(SubtitleStyle.Render(subtitle))
	b.WriteString("\n\n")

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[r] Retry  [t] Tasks  [q] Quit"))
		return b.String()
	}

	sum := d.deps.Sync.Store().Summary()
	stats := fmt.Sprintf(
		"Pipeline value: %s\nClosed value:   %s\nOpen deals:     %d of %d\nFunnels:        %d\nPending tasks:  %s",
		format.Currency(sum.TotalValue),
		SuccessStyle.Render(format.Currency(sum.ClosedValue)),
		sum.OpenDeals, sum.Deals,
		sum.Funnels,
		d.formatPending(),
	)
	b.WriteString(BoxStyle.Render(stats))
	b.WriteString("\n\n")

	if len(d.contacts) > 0 {
		b.WriteString(SubtitleStyle.Render("Recent contacts"))
		b.WriteString("\n")
		for _, c := range d.contacts {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				NormalStyle.Render(format.Truncate(c.Name, 30)),
				DimStyle.Render(format.Phone(c.Phone)),
			))
		}
		b.WriteString("\n")
	}

	if len(d.failures) > 0 {
		b.WriteString(SubtitleStyle.Render("Recent sync failures"))
		b.WriteString("\n")
		for _, ev := range d.failures {
			state := "kept"
			if ev.RolledBack {
				state = "rolled back"
			}
			b.WriteString(WarningStyle.Render(fmt.Sprintf("  %s  %s %s %s: %s (%s)\n",
				ev.CreatedAt.Local().Format("02/01 15:04"), ev.Action, ev.Entity, ev.EntityID, ev.Message, state)))
		}
	}

	help := "[b] Board  [f] Funnels  [c] Contacts  [t] Tasks  [L] Logout  [q] Quit"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

func (d *Dashboard) formatPending() string {
	if d.pendingTasks == 0 {
		return SuccessStyle.Render("0")
	}
	return WarningStyle.Render(fmt.Sprintf("%d", d.pendingTasks))
}
