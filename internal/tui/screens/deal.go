package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

// DealDetails shows one deal read straight from the store.
type DealDetails struct {
	deps     *Deps
	width    int
	height   int
	dealID   string
	deleting bool
}

func NewDealDetails(deps *Deps) *DealDetails {
	return &DealDetails{deps: deps}
}

func (d *DealDetails) SetSize(width, height int) {
	d.width = width
	d.height = height
}

func (d *DealDetails) SetDeal(id string) { d.dealID = id }

func (d *DealDetails) Init() tea.Cmd {
	d.deleting = false
	return nil
}

func (d *DealDetails) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if d.deleting {
		switch key.String() {
		case "y", "Y":
			d.deleting = false
			op, err := d.deps.Sync.DeleteDeal(d.dealID)
			if err != nil {
				crmsync.Alert(d.deps.Alerts, err, crmsync.MsgDeleteDeal)
				return nil
			}
			return tea.Batch(d.deps.runSync(op), Navigate("board"))
		case "n", "N", "esc":
			d.deleting = false
		}
		return nil
	}

	switch key.String() {
	case "e":
		return NavigateWithDeal("deal-form", d.dealID)
	case "d":
		if _, ok := d.deps.Sync.Store().Deal(d.dealID); ok {
			d.deleting = true
		}
	case "q", "esc":
		return Navigate("board")
	}
	return nil
}

func (d *DealDetails) View() string {
	var b strings.Builder

	deal, ok := d.deps.Sync.Store().Deal(d.dealID)
	if !ok {
		b.WriteString(TitleStyle.Render("DEAL"))
		b.WriteString("\n\n")
		b.WriteString(DimStyle.Render("This deal no longer exists."))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[q] Back"))
		return b.String()
	}

	b.WriteString(TitleStyle.Render(format.PlainText(deal.Title)))
	b.WriteString("\n\n")

	if d.deleting {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Delete deal '%s'? (y/n)", deal.Title)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(BoxStyle.Render(strings.Join(d.fields(deal), "\n")))
	b.WriteString("\n")

	if desc := format.PlainText(deal.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("Description"))
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("[e] Edit  [d] Delete  [q] Back"))
	return b.String()
}

func (d *DealDetails) fields(deal models.Deal) []string {
	stage := deal.Stage
	if f, ok := d.deps.Sync.Store().Funnel(deal.FunnelID); ok {
		if st, ok := f.StageByID(deal.Stage); ok {
			stage = st.Name + " · " + f.Name
		}
	}
	owner := "—"
	if deal.Owner != nil && deal.Owner.Name != "" {
		owner = deal.Owner.Name
	}

	rows := [][2]string{
		{"Value", format.Currency(deal.Value)},
		{"Stage", stage},
		{"Probability", fmt.Sprintf("%d%%", deal.Probability)},
		{"Owner", owner},
	}
	if !deal.ExpectedClose.IsZero() {
		rows = append(rows, [2]string{"Expected close", deal.ExpectedClose.Format("02/01/2006")})
	}
	optional := [][2]string{
		{"Contact number", format.Phone(deal.ContactNumber)},
		{"Client", deal.ClientName},
		{"Client role", deal.ClientRole},
		{"Client phone", format.Phone(deal.ClientPhone)},
		{"Client email", deal.ClientEmail},
		{"Client address", deal.ClientAddress},
		{"Address", deal.Address},
		{"Website", deal.Website},
		{"Social", strings.TrimSpace(deal.SocialLink1 + " " + deal.SocialLink2)},
		{"Links", strings.Join(deal.ExtraLinks, ", ")},
	}
	for _, r := range optional {
		if r[1] != "" {
			rows = append(rows, r)
		}
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, DimStyle.Render(fmt.Sprintf("%-16s", r[0]))+format.PlainText(r[1]))
	}
	return out
}
