package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID accepts identifiers the server sends either as JSON strings or numbers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type PipelineStage struct {
	ID    ID     `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Order int    `json:"order,omitempty"`
}

type Pipeline struct {
	ID        ID              `json:"id"`
	Name      string          `json:"name"`
	Stages    []PipelineStage `json:"stages"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

// StageInput is a stage sent with a pipeline create or update.
type StageInput struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Ref struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type StageRef struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Opportunity struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Amount      float64   `json:"amount"`
	Probability int       `json:"probability"`
	StageID     ID        `json:"stageId"`
	Stage       *StageRef `json:"stage"`
	PipelineID  ID        `json:"pipelineId"`
	ContactID   ID        `json:"contactId"`
	Contacts    []Ref     `json:"contacts"`
	OwnerID     ID        `json:"ownerId"`
	Owner       *Ref      `json:"owner"`
	DueDate     string    `json:"dueDate"`
	CreatedAt   string    `json:"createdAt"`

	ContactNumber   string   `json:"contactNumber"`
	Website         string   `json:"website"`
	Address         string   `json:"address"`
	ClientRole      string   `json:"clientRole"`
	ClientName      string   `json:"clientName"`
	ClientPhone     string   `json:"clientPhone"`
	ClientEmail     string   `json:"clientEmail"`
	EnderecoCliente string   `json:"enderecoCliente"`
	RedesSocial1    string   `json:"redesSocial1"`
	RedesSocial2    string   `json:"redesSocial2"`
	LinksExtras     []string `json:"linksExtras"`
}

// OpportunityInput is the body of a create or a partial update. Nil fields
// are omitted so an update only touches what it names.
type OpportunityInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Probability *int     `json:"probability,omitempty"`
	PipelineID  *string  `json:"pipelineId,omitempty"`
	StageID     *string  `json:"stageId,omitempty"`
	ContactID   *string  `json:"contactId,omitempty"`
	OwnerID     *string  `json:"ownerId,omitempty"`
	DueDate     *string  `json:"dueDate,omitempty"`

	ContactNumber   *string   `json:"contactNumber,omitempty"`
	Website         *string   `json:"website,omitempty"`
	Address         *string   `json:"address,omitempty"`
	ClientRole      *string   `json:"clientRole,omitempty"`
	ClientName      *string   `json:"clientName,omitempty"`
	ClientPhone     *string   `json:"clientPhone,omitempty"`
	ClientEmail     *string   `json:"clientEmail,omitempty"`
	EnderecoCliente *string   `json:"enderecoCliente,omitempty"`
	RedesSocial1    *string   `json:"redesSocial1,omitempty"`
	RedesSocial2    *string   `json:"redesSocial2,omitempty"`
	LinksExtras     *[]string `json:"linksExtras,omitempty"`
}

type Contact struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Segment   string `json:"segment,omitempty"`
	Status    string `json:"status,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Segment string `json:"segment,omitempty"`
	Status  string `json:"status,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
