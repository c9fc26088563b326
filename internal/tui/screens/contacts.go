package screens

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

type contactsMode int

const (
	contactsModeList contactsMode = iota
	contactsModeAdd
	contactsModeEdit
	contactsModeDelete
)

const (
	contactFieldName = iota
	contactFieldEmail
	contactFieldPhone
	contactFieldCompany
	contactFieldCount
)

var contactStatuses = []models.ContactStatus{
	models.ContactLead, models.ContactProspect, models.ContactCustomer, models.ContactInactive,
}

type Contacts struct {
	deps   *Deps
	width  int
	height int

	contacts  []models.Contact
	cursor    int
	mode      contactsMode
	inputs    []textinput.Model
	focus     int
	statusIdx int
	loading   bool
	err       error
	message   string
}

func NewContacts(deps *Deps) *Contacts {
	placeholders := [contactFieldCount]string{"Name", "Email", "(11) 98765-4321", "Company"}
	inputs := make([]textinput.Model, contactFieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 100
		ti.Width = 40
		inputs[i] = ti
	}
	return &Contacts{deps: deps, inputs: inputs}
}

func (c *Contacts) SetSize(width, height int) {
	c.width = width
	c.height = height
}

type contactsDataMsg struct {
	contacts []models.Contact
	err      error
}

type contactSavedMsg struct {
	message string
	err     error
}

func (c *Contacts) Init() tea.Cmd {
	c.loading = true
	c.mode = contactsModeList
	c.message = ""
	return c.loadData
}

func (c *Contacts) loadData() tea.Msg {
	ctx, cancel := c.deps.RequestContext()
	defer cancel()
	contacts, err := c.deps.Sync.ListContacts(ctx)
	return contactsDataMsg{contacts: contacts, err: err}
}

func (c *Contacts) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case contactsDataMsg:
		c.loading = false
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return func() tea.Msg { return UnauthorizedMsg{} }
		}
		c.err = msg.err
		c.contacts = msg.contacts
		if c.cursor >= len(c.contacts) {
			c.cursor = max(0, len(c.contacts)-1)
		}
		return nil

	case contactSavedMsg:
		if msg.err != nil {
			crmsync.Alert(c.deps.Alerts, msg.err, "Failed to save contact.")
			return nil
		}
		c.message = msg.message
		return c.loadData

	case RefreshMsg:
		return c.Init()

	case tea.KeyMsg:
		switch c.mode {
		case contactsModeList:
			return c.handleListKey(msg)
		case contactsModeAdd, contactsModeEdit:
			return c.handleInputKey(msg)
		case contactsModeDelete:
			return c.handleDeleteKey(msg)
		}
	}

	if c.mode == contactsModeAdd || c.mode == contactsModeEdit {
		var cmd tea.Cmd
		c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
		return cmd
	}
	return nil
}

func (c *Contacts) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.contacts)-1 {
			c.cursor++
		}
	case "a":
		c.openForm(contactsModeAdd, models.Contact{Status: models.ContactLead})
	case "e":
		if len(c.contacts) > 0 {
			c.openForm(contactsModeEdit, c.contacts[c.cursor])
		}
	case "d":
		if len(c.contacts) > 0 {
			c.mode = contactsModeDelete
		}
	case "r":
		return c.Init()
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (c *Contacts) openForm(mode contactsMode, contact models.Contact) {
	c.mode = mode
	c.inputs[contactFieldName].SetValue(contact.Name)
	c.inputs[contactFieldEmail].SetValue(contact.Email)
	c.inputs[contactFieldPhone].SetValue(format.Phone(contact.Phone))
	c.inputs[contactFieldCompany].SetValue(contact.Company)
	c.statusIdx = 0
	for i, s := range contactStatuses {
		if s == contact.Status {
			c.statusIdx = i
		}
	}
	c.focus = 0
	for i := range c.inputs {
		c.inputs[i].Blur()
	}
	c.inputs[0].Focus()
}

func (c *Contacts) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		c.mode = contactsModeList
		return nil
	case "tab", "down":
		c.inputs[c.focus].Blur()
		c.focus = (c.focus + 1) % contactFieldCount
		c.inputs[c.focus].Focus()
		return nil
	case "shift+tab", "up":
		c.inputs[c.focus].Blur()
		c.focus = (c.focus - 1 + contactFieldCount) % contactFieldCount
		c.inputs[c.focus].Focus()
		return nil
	case "ctrl+s":
		c.statusIdx = (c.statusIdx + 1) % len(contactStatuses)
		return nil
	case "enter":
		return c.save()
	}

	var cmd tea.Cmd
	c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
	if c.focus == contactFieldPhone {
		c.inputs[c.focus].SetValue(format.Phone(c.inputs[c.focus].Value()))
		c.inputs[c.focus].CursorEnd()
	}
	return cmd
}

func (c *Contacts) save() tea.Cmd {
	contact := models.Contact{
		Name:    strings.TrimSpace(c.inputs[contactFieldName].Value()),
		Email:   strings.TrimSpace(c.inputs[contactFieldEmail].Value()),
		Phone:   c.inputs[contactFieldPhone].Value(),
		Company: strings.TrimSpace(c.inputs[contactFieldCompany].Value()),
		Status:  contactStatuses[c.statusIdx],
	}
	editing := c.mode == contactsModeEdit
	if editing {
		prev := c.contacts[c.cursor]
		contact.ID = prev.ID
		contact.Segment = prev.Segment
		contact.Notes = prev.Notes
	}
	c.mode = contactsModeList

	return func() tea.Msg {
		ctx, cancel := c.deps.RequestContext()
		defer cancel()
		if editing {
			_, err := c.deps.Sync.UpdateContact(ctx, contact)
			return contactSavedMsg{message: fmt.Sprintf("Updated contact: %s", contact.Name), err: err}
		}
		_, err := c.deps.Sync.CreateContact(ctx, contact)
		return contactSavedMsg{message: fmt.Sprintf("Created contact: %s", contact.Name), err: err}
	}
}

func (c *Contacts) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		c.mode = contactsModeList
		target := c.contacts[c.cursor]
		return func() tea.Msg {
			ctx, cancel := c.deps.RequestContext()
			defer cancel()
			err := c.deps.Sync.DeleteContact(ctx, target.ID)
			return contactSavedMsg{message: fmt.Sprintf("Deleted contact: %s", target.Name), err: err}
		}
	case "n", "N", "esc":
		c.mode = contactsModeList
	}
	return nil
}

func (c *Contacts) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("CONTACTS"))
	b.WriteString("\n\n")

	if c.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if c.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", c.err)))
		b.WriteString("\n\n")
		c.err = nil
	}

	if c.message != "" {
		b.WriteString(SuccessStyle.Render(c.message))
		b.WriteString("\n\n")
	}

	if c.mode == contactsModeAdd || c.mode == contactsModeEdit {
		labels := [contactFieldCount]string{"Name", "Email", "Phone", "Company"}
		for i := range c.inputs {
			b.WriteString(fmt.Sprintf("%-10s", labels[i]))
			b.WriteString(c.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%-10s%s\n", "Status", contactStatuses[c.statusIdx]))
		b.WriteString(HelpStyle.Render("[tab] Next  [ctrl+s] Status  [enter] Save  [esc] Cancel"))
		return b.String()
	}

	if c.mode == contactsModeDelete && len(c.contacts) > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Delete contact '%s'? (y/n)", c.contacts[c.cursor].Name)))
		b.WriteString("\n")
		return b.String()
	}

	if len(c.contacts) == 0 {
		b.WriteString(DimStyle.Render("No contacts yet."))
		b.WriteString("\n\n")
	} else {
		for i, contact := range c.contacts {
			cursor := "  "
			style := NormalStyle
			if i == c.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			line := fmt.Sprintf("%s%-24s %-16s %-20s %s",
				cursor,
				format.Truncate(contact.Name, 24),
				format.Phone(contact.Phone),
				format.Truncate(contact.Company, 20),
				contact.Status,
			)
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("[a] Add  [e] Edit  [d] Delete  [r] Reload  [q] Back"))
	return b.String()
}
