package crmsync

import (
	"strings"
	"time"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

const dateLayout = "2006-01-02"

func funnelFromPipeline(p api.Pipeline) models.Funnel {
	f := models.Funnel{
		ID:        p.ID.String(),
		Name:      p.Name,
		Stages:    make([]models.Stage, 0, len(p.Stages)),
		CreatedAt: parseTime(p.CreatedAt),
	}
	for _, st := range p.Stages {
		f.Stages = append(f.Stages, models.Stage{ID: st.ID.String(), Name: st.Name, Color: st.Color})
	}
	return f
}

func stageInputs(stages []models.Stage) []api.StageInput {
	out := make([]api.StageInput, 0, len(stages))
	for _, st := range stages {
		out = append(out, api.StageInput{ID: st.ID, Name: st.Name, Color: st.Color})
	}
	return out
}

func dealFromOpportunity(o api.Opportunity) models.Deal {
	d := models.Deal{
		ID:            o.ID.String(),
		Title:         o.Title,
		Value:         o.Amount,
		Stage:         o.StageID.String(),
		FunnelID:      o.PipelineID.String(),
		ContactID:     o.ContactID.String(),
		Probability:   o.Probability,
		ExpectedClose: parseTime(o.DueDate),
		CreatedAt:     parseTime(o.CreatedAt),
		OwnerID:       o.OwnerID.String(),

		Description:   o.Description,
		ContactNumber: o.ContactNumber,
		Website:       o.Website,
		Address:       o.Address,
		ClientRole:    o.ClientRole,
		ClientName:    o.ClientName,
		ClientPhone:   o.ClientPhone,
		ClientEmail:   o.ClientEmail,
		ClientAddress: o.EnderecoCliente,
		SocialLink1:   o.RedesSocial1,
		SocialLink2:   o.RedesSocial2,
		ExtraLinks:    o.LinksExtras,
	}
	if d.Value == 0 {
		d.Value = o.Value
	}
	if d.Stage == "" && o.Stage != nil {
		d.Stage = o.Stage.ID.String()
	}
	if len(o.Contacts) > 0 && o.Contacts[0].ID != "" {
		d.ContactID = o.Contacts[0].ID.String()
	}
	if o.Owner != nil && o.Owner.ID != "" {
		d.OwnerID = o.Owner.ID.String()
		d.Owner = &models.Owner{ID: o.Owner.ID.String(), Name: o.Owner.Name}
	}
	return d
}

func contactFromAPI(c api.Contact) models.Contact {
	return models.Contact{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Segment:   c.Segment,
		Status:    models.ContactStatus(c.Status),
		Notes:     c.Notes,
		CreatedAt: parseTime(c.CreatedAt),
	}
}

func userFromAPI(u api.User) models.User {
	return models.User{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

// parseTime accepts RFC 3339 timestamps and bare dates; anything else is zero.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func ptr[T any](v T) *T { return &v }
