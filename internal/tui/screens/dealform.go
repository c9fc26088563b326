package screens

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

const (
	fieldTitle = iota
	fieldValue
	fieldProbability
	fieldExpectedClose
	fieldDescription
	fieldContactNumber
	fieldClientName
	fieldClientPhone
	fieldClientEmail
	fieldWebsite
	textFieldCount
)

// selector rows follow the text inputs
const (
	selectContact = textFieldCount + iota
	selectOwner
	selectStage
)

var dealFieldLabels = [textFieldCount]string{
	"Title", "Value", "Probability %", "Expected close", "Description",
	"Contact number", "Client name", "Client phone", "Client email", "Website",
}

// DealForm creates a deal in the active funnel or edits an existing one.
type DealForm struct {
	deps   *Deps
	width  int
	height int

	dealID  string // empty when creating
	inputs  []textinput.Model
	focus   int
	saving  bool
	loading bool

	users      []models.User
	contacts   []models.Contact
	stages     []models.Stage
	contactIdx int // -1 = none
	ownerIdx   int // -1 = none
	stageIdx   int
	base       models.Deal
}

func NewDealForm(deps *Deps) *DealForm {
	f := &DealForm{deps: deps}
	f.inputs = make([]textinput.Model, textFieldCount)
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		ti.Width = 40
		f.inputs[i] = ti
	}
	f.inputs[fieldValue].Placeholder = "R$ 0,00"
	f.inputs[fieldProbability].Placeholder = "0"
	f.inputs[fieldExpectedClose].Placeholder = "YYYY-MM-DD"
	f.inputs[fieldContactNumber].Placeholder = "(11) 98765-4321"
	f.inputs[fieldClientPhone].Placeholder = "(11) 98765-4321"
	return f
}

func (f *DealForm) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// SetDeal selects the deal to edit; an empty id starts a new deal.
func (f *DealForm) SetDeal(id string) {
	f.dealID = id
}

type dealFormDataMsg struct {
	dir crmsync.Directory
	err error
}

type dealSavedMsg struct {
	deal models.Deal
	err  error
}

func (f *DealForm) Init() tea.Cmd {
	f.saving = false
	f.loading = true
	f.focus = 0
	f.contactIdx, f.ownerIdx, f.stageIdx = -1, -1, 0
	f.base = models.Deal{}
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}

	var in crmsync.DealInput
	if f.dealID != "" {
		if d, ok := f.deps.Sync.Store().Deal(f.dealID); ok {
			f.base = d
			in = crmsync.InputFromDeal(d)
			if funnel, ok := f.deps.Sync.Store().Funnel(d.FunnelID); ok {
				f.stages = funnel.Stages
			}
		}
	} else if funnel, ok := f.deps.Sync.Store().ActiveFunnel(); ok {
		f.stages = funnel.Stages
	}
	for i, st := range f.stages {
		if st.ID == f.base.Stage {
			f.stageIdx = i
		}
	}

	f.inputs[fieldTitle].SetValue(in.Title)
	if in.Value != 0 {
		f.inputs[fieldValue].SetValue(format.Currency(in.Value))
	}
	if in.Probability != 0 {
		f.inputs[fieldProbability].SetValue(strconv.Itoa(in.Probability))
	}
	if !in.ExpectedClose.IsZero() {
		f.inputs[fieldExpectedClose].SetValue(in.ExpectedClose.Format("2006-01-02"))
	}
	f.inputs[fieldDescription].SetValue(in.Description)
	f.inputs[fieldContactNumber].SetValue(format.Phone(in.ContactNumber))
	f.inputs[fieldClientName].SetValue(in.ClientName)
	f.inputs[fieldClientPhone].SetValue(format.Phone(in.ClientPhone))
	f.inputs[fieldClientEmail].SetValue(in.ClientEmail)
	f.inputs[fieldWebsite].SetValue(in.Website)
	f.inputs[fieldTitle].Focus()

	return f.loadData
}

// loadData fetches users and contacts in parallel for the selectors.
func (f *DealForm) loadData() tea.Msg {
	ctx, cancel := f.deps.RequestContext()
	defer cancel()
	dir, err := f.deps.Sync.LoadDirectory(ctx)
	return dealFormDataMsg{dir: dir, err: err}
}

func (f *DealForm) rows() int {
	if f.dealID == "" {
		return selectOwner + 1
	}
	return selectStage + 1
}

func (f *DealForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dealFormDataMsg:
		f.loading = false
		if msg.err != nil {
			crmsync.Alert(f.deps.Alerts, msg.err, crmsync.MsgLoad)
			return nil
		}
		f.users = msg.dir.Users
		f.contacts = msg.dir.Contacts
		for i, c := range f.contacts {
			if c.ID == f.base.ContactID {
				f.contactIdx = i
			}
		}
		for i, u := range f.users {
			if u.ID == f.base.OwnerID {
				f.ownerIdx = i
			}
		}
		return nil

	case dealSavedMsg:
		f.saving = false
		if msg.err != nil {
			crmsync.Alert(f.deps.Alerts, msg.err, crmsync.MsgSaveDeal)
			return nil
		}
		return Navigate("board")

	case tea.KeyMsg:
		if f.saving {
			return nil
		}
		switch msg.String() {
		case "esc":
			return Navigate("board")
		case "tab", "down":
			f.setFocus((f.focus + 1) % f.rows())
			return nil
		case "shift+tab", "up":
			f.setFocus((f.focus - 1 + f.rows()) % f.rows())
			return nil
		case "enter":
			return f.submit()
		case "left", "right":
			if f.focus >= textFieldCount {
				step := 1
				if msg.String() == "left" {
					step = -1
				}
				f.cycle(step)
				return nil
			}
		}
	}

	if f.focus < textFieldCount {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		switch f.focus {
		case fieldContactNumber, fieldClientPhone:
			f.inputs[f.focus].SetValue(format.Phone(f.inputs[f.focus].Value()))
			f.inputs[f.focus].CursorEnd()
		}
		return cmd
	}
	return nil
}

func (f *DealForm) setFocus(i int) {
	if f.focus < textFieldCount {
		f.inputs[f.focus].Blur()
	}
	f.focus = i
	if f.focus < textFieldCount {
		f.inputs[f.focus].Focus()
	}
}

// cycle moves a selector; contact and owner wrap through "none".
func (f *DealForm) cycle(step int) {
	wrap := func(i, n int) int {
		// positions -1..n-1
		return (i+1+step+n+1)%(n+1) - 1
	}
	switch f.focus {
	case selectContact:
		f.contactIdx = wrap(f.contactIdx, len(f.contacts))
	case selectOwner:
		f.ownerIdx = wrap(f.ownerIdx, len(f.users))
	case selectStage:
		if n := len(f.stages); n > 0 {
			f.stageIdx = (f.stageIdx + step + n) % n
		}
	}
}

func (f *DealForm) input() (crmsync.DealInput, error) {
	in := crmsync.InputFromDeal(f.base)
	in.Title = strings.TrimSpace(f.inputs[fieldTitle].Value())
	in.Value = format.ParseCurrency(f.inputs[fieldValue].Value())
	in.Description = f.inputs[fieldDescription].Value()
	in.ContactNumber = format.Digits(f.inputs[fieldContactNumber].Value())
	in.ClientName = f.inputs[fieldClientName].Value()
	in.ClientPhone = f.inputs[fieldClientPhone].Value()
	in.ClientEmail = strings.TrimSpace(f.inputs[fieldClientEmail].Value())
	in.Website = strings.TrimSpace(f.inputs[fieldWebsite].Value())

	in.Probability = 0
	if p := strings.TrimSpace(f.inputs[fieldProbability].Value()); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 100 {
			return in, fmt.Errorf("%w: probability must be between 0 and 100", crmsync.ErrValidation)
		}
		in.Probability = v
	}
	in.ExpectedClose = time.Time{}
	if s := strings.TrimSpace(f.inputs[fieldExpectedClose].Value()); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return in, fmt.Errorf("%w: expected close must look like 2025-12-31", crmsync.ErrValidation)
		}
		in.ExpectedClose = t
	}

	in.ContactID = ""
	if f.contactIdx >= 0 && f.contactIdx < len(f.contacts) {
		in.ContactID = f.contacts[f.contactIdx].ID
	}
	in.OwnerID = ""
	if f.ownerIdx >= 0 && f.ownerIdx < len(f.users) {
		in.OwnerID = f.users[f.ownerIdx].ID
	}
	if f.stageIdx < len(f.stages) {
		in.StageID = f.stages[f.stageIdx].ID
	}
	return in, nil
}

func (f *DealForm) submit() tea.Cmd {
	in, err := f.input()
	if err != nil {
		crmsync.Alert(f.deps.Alerts, err, crmsync.MsgSaveDeal)
		return nil
	}

	if f.dealID == "" {
		f.saving = true
		return func() tea.Msg {
			ctx, cancel := f.deps.RequestContext()
			defer cancel()
			d, err := f.deps.Sync.CreateDeal(ctx, in)
			return dealSavedMsg{deal: d, err: err}
		}
	}

	op, err := f.deps.Sync.UpdateDeal(f.dealID, in)
	if err != nil {
		crmsync.Alert(f.deps.Alerts, err, crmsync.MsgSaveDeal)
		return nil
	}
	return tea.Batch(f.deps.runSync(op), Navigate("board"))
}

func (f *DealForm) View() string {
	var b strings.Builder

	title := "NEW DEAL"
	if f.dealID != "" {
		title = "EDIT DEAL"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	for i := range f.inputs {
		label := fmt.Sprintf("%-16s", dealFieldLabels[i])
		if i == f.focus {
			b.WriteString(SelectedStyle.Render(label))
		} else {
			b.WriteString(DimStyle.Render(label))
		}
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	contact := "none"
	if f.contactIdx >= 0 && f.contactIdx < len(f.contacts) {
		contact = f.contacts[f.contactIdx].Name
	}
	owner := "none"
	if f.ownerIdx >= 0 && f.ownerIdx < len(f.users) {
		owner = f.users[f.ownerIdx].Name
	}
	b.WriteString(f.selectorLine(selectContact, "Contact", contact))
	b.WriteString(f.selectorLine(selectOwner, "Owner", owner))
	if f.dealID != "" && f.stageIdx < len(f.stages) {
		b.WriteString(f.selectorLine(selectStage, "Stage", f.stages[f.stageIdx].Name))
	}

	switch {
	case f.saving:
		b.WriteString("\nSaving...\n")
	case f.loading:
		b.WriteString(DimStyle.Render("\nLoading users and contacts...\n"))
	}

	b.WriteString(HelpStyle.Render("[tab] Next  [←→] Choose  [enter] Save  [esc] Cancel"))
	return b.String()
}

func (f *DealForm) selectorLine(row int, label, value string) string {
	text := fmt.Sprintf("%-16s‹ %s ›", label, value)
	if row == f.focus {
		return SelectedStyle.Render(text) + "\n"
	}
	return NormalStyle.Render(text) + "\n"
}
