package screens

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/board"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
)

// Board geometry, in terminal cells. Auto-scroll thresholds are configured
// in pixels and converted at cellPixels per cell.
const (
	columnWidth       = 30
	cellPixels        = 8
	boardHeaderLines  = 3
	columnHeaderLines = 3
	cardLines         = 3
)

type boardMode int

const (
	boardModeBrowse boardMode = iota
	boardModeDelete
)

type Board struct {
	deps   *Deps
	width  int
	height int

	drag     *board.Board
	frames   *teaFrames
	offsetPx int
	lastX    int
	hoverCol int

	contacts map[string]string
	col      int
	row      int
	mode     boardMode
	loading  bool
	message  string
}

func NewBoard(deps *Deps) *Board {
	b := &Board{deps: deps, hoverCol: -1}
	interval := deps.Config.Board.FrameInterval.Duration
	b.frames = newTeaFrames(interval)

	scroller := board.NewAutoScroller(b.frames, b)
	scroller.Edge = deps.Config.Board.ScrollEdge
	scroller.Step = deps.Config.Board.ScrollStep
	b.drag = board.New(deps.Sync, scroller)
	return b
}

func (b *Board) SetSize(width, height int) {
	b.width = width
	b.height = height
	b.ScrollBy(0)
}

// Bounds and ScrollBy make the board its own auto-scroll viewport.
func (b *Board) Bounds() (int, int) {
	return 0, b.width * cellPixels
}

func (b *Board) ScrollBy(delta int) {
	stages := len(b.stages())
	maxOffset := max(0, stages*columnWidth-b.width) * cellPixels
	b.offsetPx = min(max(0, b.offsetPx+delta), maxOffset)
}

type boardDataMsg struct {
	contacts []models.Contact
	err      error
}

func (b *Board) Init() tea.Cmd {
	b.loading = true
	b.mode = boardModeBrowse
	b.message = ""
	b.drag.Cancel()
	return b.loadData
}

func (b *Board) loadData() tea.Msg {
	ctx, cancel := b.deps.RequestContext()
	defer cancel()

	svc := b.deps.Sync
	if err := svc.LoadFunnels(ctx); err != nil {
		return boardDataMsg{err: err}
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
		return boardDataMsg{err: err}
	}
	return boardDataMsg{contacts: dir.Contacts}
}

func (b *Board) funnel() (models.Funnel, bool) {
	return b.deps.Sync.Store().ActiveFunnel()
}

func (b *Board) stages() []models.Stage {
	f, ok := b.funnel()
	if !ok {
		return nil
	}
	return f.Stages
}

// columnDeals is recomputed from the store on every call.
func (b *Board) columnDeals(col int) []models.Deal {
	f, ok := b.funnel()
	if !ok || col < 0 || col >= len(f.Stages) {
		return nil
	}
	return b.deps.Sync.Store().StageDeals(f.ID, f.Stages[col].ID)
}

func (b *Board) selected() (models.Deal, bool) {
	deals := b.columnDeals(b.col)
	if b.row < 0 || b.row >= len(deals) {
		return models.Deal{}, false
	}
	return deals[b.row], true
}

func (b *Board) firstColumn() int {
	return b.offsetPx / (columnWidth * cellPixels)
}

func (b *Board) visibleColumns() int {
	return max(1, b.width/columnWidth)
}

func (b *Board) clampCursor() {
	n := len(b.stages())
	b.col = min(max(0, b.col), max(0, n-1))
	b.row = min(max(0, b.row), max(0, len(b.columnDeals(b.col))-1))

	first := b.firstColumn()
	if b.col < first {
		b.offsetPx = b.col * columnWidth * cellPixels
	} else if b.col >= first+b.visibleColumns() {
		b.offsetPx = (b.col - b.visibleColumns() + 1) * columnWidth * cellPixels
	}
	b.ScrollBy(0)
}

// hit maps a mouse position to a column and, when over a card, a row.
func (b *Board) hit(x, y int) (col, row int, ok bool) {
	if y < boardHeaderLines {
		return 0, 0, false
	}
	col = b.firstColumn() + x/columnWidth
	if col >= len(b.stages()) {
		return 0, 0, false
	}
	row = -1
	if y >= boardHeaderLines+columnHeaderLines {
		row = (y - boardHeaderLines - columnHeaderLines) / cardLines
		if row >= len(b.columnDeals(col)) {
			row = -1
		}
	}
	return col, row, true
}

func (b *Board) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case boardDataMsg:
		b.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return func() tea.Msg { return UnauthorizedMsg{} }
			}
			crmsync.Alert(b.deps.Alerts, msg.err, crmsync.MsgLoad)
			return nil
		}
		b.contacts = make(map[string]string, len(msg.contacts))
		for _, c := range msg.contacts {
			b.contacts[c.ID] = c.Name
		}
		b.clampCursor()
		return nil

	case frameMsg:
		if b.frames.fire(msg.handle) {
			// keep scrolling while the pointer rests in an edge zone
			if _, dragging := b.drag.Dragging(); dragging {
				b.drag.DragOver(b.lastX)
			}
		}
		return b.frames.take()

	case RefreshMsg:
		return b.Init()

	case tea.MouseMsg:
		return b.handleMouse(msg)

	case tea.KeyMsg:
		if b.mode == boardModeDelete {
			return b.handleDeleteKey(msg)
		}
		return b.handleKey(msg)
	}
	return nil
}

func (b *Board) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		col, row, ok := b.hit(msg.X, msg.Y)
		if !ok || row < 0 {
			return nil
		}
		b.col, b.row = col, row
		b.startDrag()

	case tea.MouseActionMotion:
		if _, dragging := b.drag.Dragging(); !dragging {
			return nil
		}
		b.lastX = msg.X * cellPixels
		if col, _, ok := b.hit(msg.X, msg.Y); ok {
			b.hoverCol = col
		}
		b.drag.DragOver(b.lastX)
		return b.frames.take()

	case tea.MouseActionRelease:
		if _, dragging := b.drag.Dragging(); !dragging {
			return nil
		}
		col, _, ok := b.hit(msg.X, msg.Y)
		if !ok {
			b.cancelDrag()
			return nil
		}
		return b.dropOn(col)
	}
	return nil
}

func (b *Board) handleKey(msg tea.KeyMsg) tea.Cmd {
	_, dragging := b.drag.Dragging()

	switch msg.String() {
	case "left", "h":
		b.col--
		b.clampCursor()
		if dragging {
			b.hoverCol = b.col
		}
	case "right", "l":
		b.col++
		b.clampCursor()
		if dragging {
			b.hoverCol = b.col
		}
	case "up", "k":
		if b.row > 0 {
			b.row--
		}
	case "down", "j":
		if b.row < len(b.columnDeals(b.col))-1 {
			b.row++
		}
	case " ", "m":
		if dragging {
			return b.dropOn(b.col)
		}
		b.startDrag()
	case "esc":
		if dragging {
			b.cancelDrag()
			return nil
		}
		return Navigate("dashboard")
	case "enter":
		if d, ok := b.selected(); ok && !dragging {
			return NavigateWithDeal("deal", d.ID)
		}
	case "n":
		return NavigateWithDeal("deal-form", "")
	case "e":
		if d, ok := b.selected(); ok {
			return NavigateWithDeal("deal-form", d.ID)
		}
	case "d":
		if _, ok := b.selected(); ok && !dragging {
			b.mode = boardModeDelete
		}
	case "f":
		return Navigate("funnels")
	case "S":
		if f, ok := b.funnel(); ok && !dragging {
			return NavigateWithFunnel("funnels", f.ID)
		}
	case "r":
		return b.Init()
	case "q":
		return Navigate("dashboard")
	}
	return nil
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		b.mode = boardModeBrowse
		d, ok := b.selected()
		if !ok {
			return nil
		}
		op, err := b.deps.Sync.DeleteDeal(d.ID)
		if err != nil {
			crmsync.Alert(b.deps.Alerts, err, crmsync.MsgDeleteDeal)
			return nil
		}
		b.message = fmt.Sprintf("Deleted deal: %s", d.Title)
		b.clampCursor()
		return b.deps.runSync(op)
	case "n", "N", "esc":
		b.mode = boardModeBrowse
	}
	return nil
}

func (b *Board) startDrag() {
	d, ok := b.selected()
	if !ok {
		return
	}
	b.drag.StartDrag(board.DragSource{DealID: d.ID, StageID: d.Stage, FunnelID: d.FunnelID})
	b.hoverCol = b.col
	b.message = ""
}

func (b *Board) cancelDrag() {
	b.drag.Cancel()
	b.hoverCol = -1
}

func (b *Board) dropOn(col int) tea.Cmd {
	b.hoverCol = -1
	stages := b.stages()
	if col < 0 || col >= len(stages) {
		b.drag.Cancel()
		return nil
	}
	src, _ := b.drag.Dragging()
	op, err := b.drag.Drop(stages[col].ID)
	if err != nil {
		crmsync.Alert(b.deps.Alerts, err, crmsync.MsgMoveDeal)
		return nil
	}
	if op == nil {
		return nil
	}

	// follow the card to its new column
	b.col = col
	for i, d := range b.columnDeals(col) {
		if d.ID == src.DealID {
			b.row = i
		}
	}
	b.clampCursor()
	return b.deps.runSync(op)
}

func (b *Board) View() string {
	var sb strings.Builder

	f, ok := b.funnel()
	title := "DEALS"
	if ok {
		title += " · " + f.Name
	}
	sb.WriteString(TitleStyle.MarginBottom(0).Render(title))
	sb.WriteString("\n")

	switch {
	case b.loading && !ok:
		sb.WriteString("Loading...\n")
		return sb.String()
	case !ok:
		sb.WriteString(DimStyle.Render("No funnels yet. Press 'f' to create one."))
		sb.WriteString("\n")
		sb.WriteString(HelpStyle.Render("[f] Funnels  [q] Back"))
		return sb.String()
	}

	switch {
	case b.mode == boardModeDelete:
		d, _ := b.selected()
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("Delete deal '%s'? (y/n)", d.Title)))
	case b.message != "":
		sb.WriteString(SuccessStyle.Render(b.message))
	default:
		deals := b.deps.Sync.Store().ActiveFunnelDeals()
		sb.WriteString(DimStyle.Render(fmt.Sprintf("%s in %d deals", format.Currency(store.Total(deals)), len(deals))))
	}
	sb.WriteString("\n\n")

	src, dragging := b.drag.Dragging()
	first := b.firstColumn()
	last := min(len(f.Stages), first+b.visibleColumns())
	cols := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		cols = append(cols, b.renderColumn(f.Stages[i], i, src, dragging))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	sb.WriteString("\n")

	help := "[←→↑↓] Move  [space] Pick/drop  [enter] Details  [n] New  [e] Edit  [d] Delete  [S] Stages  [f] Funnels  [q] Back"
	if dragging {
		help = "[←→] Choose stage  [space] Drop  [esc] Cancel"
	}
	sb.WriteString(HelpStyle.Render(help))
	return sb.String()
}

func (b *Board) renderColumn(stage models.Stage, col int, src board.DragSource, dragging bool) string {
	inner := columnWidth - 2
	deals := b.columnDeals(col)

	header := lipgloss.NewStyle().Bold(true)
	if stage.Color != "" {
		header = header.Foreground(lipgloss.Color(stage.Color))
	}
	name := format.Truncate(stage.Name, inner)
	if dragging && col == b.hoverCol {
		name = format.Truncate("▶ "+stage.Name, inner)
	}

	lines := []string{
		header.Render(name),
		DimStyle.Render(format.Truncate(fmt.Sprintf("%d · %s", len(deals), format.Currency(store.Total(deals))), inner)),
		DimStyle.Render(strings.Repeat("─", inner)),
	}
	for i, d := range deals {
		style := NormalStyle
		prefix := "  "
		if col == b.col && i == b.row {
			style = SelectedStyle
			prefix = "> "
		}
		if dragging && d.ID == src.DealID {
			prefix = "⇄ "
			style = WarningStyle
		}
		owner := ""
		if d.Owner != nil && d.Owner.Name != "" {
			owner = " · " + d.Owner.Name
		} else if contact, ok := b.contacts[d.ContactID]; ok {
			owner = " · " + contact
		}
		lines = append(lines,
			style.Render(format.Truncate(prefix+format.PlainText(d.Title), inner)),
			DimStyle.Render(format.Truncate("  "+format.Currency(d.Value)+owner, inner)),
			"",
		)
	}
	return ColumnStyle.Width(columnWidth - 1).Render(strings.Join(lines, "\n"))
}
