package models

import "time"

type Stage struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

type Funnel struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Stages    []Stage   `json:"stages" yaml:"stages"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// StageByID returns the stage with the given id, if the funnel has one.
func (f Funnel) StageByID(id string) (Stage, bool) {
	for _, s := range f.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// Owner is the display snapshot of the user responsible for a deal.
// OwnerID on the deal is authoritative; Owner is refreshed whenever it changes.
type Owner struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Deal struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Value         float64   `json:"value" yaml:"value"`
	Stage         string    `json:"stage" yaml:"stage"`
	FunnelID      string    `json:"funnelId" yaml:"funnel_id"`
	ContactID     string    `json:"contactId,omitempty" yaml:"contact_id,omitempty"`
	Probability   int       `json:"probability" yaml:"probability"`
	ExpectedClose time.Time `json:"expectedClose" yaml:"expected_close"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
	OwnerID       string    `json:"ownerId,omitempty" yaml:"owner_id,omitempty"`
	Owner         *Owner    `json:"owner,omitempty" yaml:"owner,omitempty"`

	// Free-form fields, carried through unchanged
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	ContactNumber string   `json:"contactNumber,omitempty" yaml:"contact_number,omitempty"`
	Website       string   `json:"website,omitempty" yaml:"website,omitempty"`
	Address       string   `json:"address,omitempty" yaml:"address,omitempty"`
	ClientRole    string   `json:"clientRole,omitempty" yaml:"client_role,omitempty"`
	ClientName    string   `json:"clientName,omitempty" yaml:"client_name,omitempty"`
	ClientPhone   string   `json:"clientPhone,omitempty" yaml:"client_phone,omitempty"`
	ClientEmail   string   `json:"clientEmail,omitempty" yaml:"client_email,omitempty"`
	ClientAddress string   `json:"enderecoCliente,omitempty" yaml:"client_address,omitempty"`
	SocialLink1   string   `json:"redesSocial1,omitempty" yaml:"social_link_1,omitempty"`
	SocialLink2   string   `json:"redesSocial2,omitempty" yaml:"social_link_2,omitempty"`
	ExtraLinks    []string `json:"linksExtras,omitempty" yaml:"extra_links,omitempty"`
}

type ContactStatus string

const (
	ContactLead     ContactStatus = "lead"
	ContactProspect ContactStatus = "prospect"
	ContactCustomer ContactStatus = "customer"
	ContactInactive ContactStatus = "inactive"
)

type Contact struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Company   string        `json:"company"`
	Segment   string        `json:"segment,omitempty"`
	Status    ContactStatus `json:"status,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Rank orders priorities for display: high first.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

type Task struct {
	ID          int64
	Title       string
	Description string
	DueDate     time.Time
	Priority    TaskPriority
	Status      TaskStatus
	ContactID   string // optional
	DealID      string // optional
	CreatedAt   time.Time
}

// SyncEvent records a remote write that failed after a local mutation.
type SyncEvent struct {
	ID         int64
	Entity     string // "deal" or "funnel"
	EntityID   string
	Action     string
	Message    string
	RolledBack bool
	CreatedAt  time.Time
}
