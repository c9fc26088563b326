package crmsync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
)

// DealInput is what the deal form submits.
type DealInput struct {
	Title         string
	Description   string
	Value         float64
	Probability   int
	ContactID     string
	OwnerID       string
	ExpectedClose time.Time
	StageID       string // edit only; empty keeps the current stage

	ContactNumber string
	Website       string
	Address       string
	ClientRole    string
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	ClientAddress string
	SocialLink1   string
	SocialLink2   string
	ExtraLinks    []string
}

// InputFromDeal pre-fills the form for editing d.
func InputFromDeal(d models.Deal) DealInput {
	in := DealInput{
		Title:         d.Title,
		Description:   d.Description,
		Value:         d.Value,
		Probability:   d.Probability,
		ContactID:     d.ContactID,
		OwnerID:       d.OwnerID,
		ExpectedClose: d.ExpectedClose,
		StageID:       d.Stage,
		ContactNumber: d.ContactNumber,
		Website:       d.Website,
		Address:       d.Address,
		ClientRole:    d.ClientRole,
		ClientName:    d.ClientName,
		ClientPhone:   d.ClientPhone,
		ClientEmail:   d.ClientEmail,
		ClientAddress: d.ClientAddress,
		SocialLink1:   d.SocialLink1,
		SocialLink2:   d.SocialLink2,
		ExtraLinks:    append([]string(nil), d.ExtraLinks...),
	}
	if in.OwnerID == "" && d.Owner != nil {
		in.OwnerID = d.Owner.ID
	}
	return in
}

func (in DealInput) toAPI() api.OpportunityInput {
	links := append([]string{}, in.ExtraLinks...)
	return api.OpportunityInput{
		Title:           ptr(in.Title),
		Description:     ptr(in.Description),
		Amount:          ptr(in.Value),
		Probability:     ptr(in.Probability),
		ContactID:       ptr(in.ContactID),
		OwnerID:         ptr(in.OwnerID),
		DueDate:         ptr(formatDate(in.ExpectedClose)),
		ContactNumber:   ptr(format.Digits(in.ContactNumber)),
		Website:         ptr(in.Website),
		Address:         ptr(in.Address),
		ClientRole:      ptr(in.ClientRole),
		ClientName:      ptr(in.ClientName),
		ClientPhone:     ptr(in.ClientPhone),
		ClientEmail:     ptr(in.ClientEmail),
		EnderecoCliente: ptr(in.ClientAddress),
		RedesSocial1:    ptr(in.SocialLink1),
		RedesSocial2:    ptr(in.SocialLink2),
		LinksExtras:     &links,
	}
}

// CreateDeal sends the deal to the server and inserts it locally only once
// the server answered with its id. It lands in the first stage of the active
// funnel. A failed create leaves the store untouched.
func (s *Service) CreateDeal(ctx context.Context, in DealInput) (models.Deal, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Deal{}, ErrTitleRequired
	}
	funnel, ok := s.store.ActiveFunnel()
	if !ok || len(funnel.Stages) == 0 || funnel.Stages[0].ID == "" {
		return models.Deal{}, ErrNoActiveFunnel
	}
	stageID := funnel.Stages[0].ID

	body := in.toAPI()
	body.PipelineID = ptr(funnel.ID)
	body.StageID = ptr(stageID)

	created, err := s.remote.CreateOpportunity(ctx, body)
	if err == nil && created.ID == "" {
		err = errors.New("server returned no id")
	}
	if err != nil {
		syncErr := &SyncError{Action: "create", Entity: "deal", Fallback: MsgSaveDeal, Err: err}
		s.recordFailure(syncErr)
		return models.Deal{}, syncErr
	}

	d := dealFromOpportunity(created)
	// fill what the server did not echo back from the form
	if d.Title == "" {
		d.Title = in.Title
	}
	if d.Value == 0 {
		d.Value = in.Value
	}
	if d.Stage == "" {
		d.Stage = stageID
	}
	if d.FunnelID == "" {
		d.FunnelID = funnel.ID
	}
	if d.ContactID == "" {
		d.ContactID = in.ContactID
	}
	if d.OwnerID == "" {
		d.OwnerID = in.OwnerID
	}
	if d.Owner == nil {
		d.Owner = s.ownerSnapshot(d.OwnerID, nil)
	}
	if d.ExpectedClose.IsZero() {
		d.ExpectedClose = in.ExpectedClose
	}

	s.store.AddDeal(d)
	stored, _ := s.store.Deal(d.ID)
	return stored, nil
}

// UpdateDeal applies the form to the local deal and returns the pending
// remote write. The owner snapshot is refreshed from the user directory.
func (s *Service) UpdateDeal(id string, in DealInput) (*Op, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	before, ok := s.store.Deal(id)
	if !ok {
		return nil, ErrDealNotFound
	}
	index := s.store.DealIndex(id)

	stageID := in.StageID
	if stageID == "" {
		stageID = before.Stage
	}

	patch := store.DealPatch{
		Title:         ptr(in.Title),
		Description:   ptr(in.Description),
		Value:         ptr(in.Value),
		Probability:   ptr(in.Probability),
		ContactID:     ptr(in.ContactID),
		ExpectedClose: ptr(in.ExpectedClose),
		Stage:         ptr(stageID),
		OwnerID:       ptr(in.OwnerID),
		Owner:         s.ownerSnapshot(in.OwnerID, before.Owner),
		ContactNumber: ptr(format.Digits(in.ContactNumber)),
		Website:       ptr(in.Website),
		Address:       ptr(in.Address),
		ClientRole:    ptr(in.ClientRole),
		ClientName:    ptr(in.ClientName),
		ClientPhone:   ptr(in.ClientPhone),
		ClientEmail:   ptr(in.ClientEmail),
		ClientAddress: ptr(in.ClientAddress),
		SocialLink1:   ptr(in.SocialLink1),
		SocialLink2:   ptr(in.SocialLink2),
		ExtraLinks:    ptr(append([]string(nil), in.ExtraLinks...)),
	}
	s.store.UpdateDeal(id, patch)
	after, _ := s.store.Deal(id)

	body := in.toAPI()
	body.StageID = ptr(stageID)
	body.PipelineID = ptr(before.FunnelID)

	return &Op{
		svc:      s,
		action:   "update",
		entity:   "deal",
		entityID: id,
		fallback: MsgSaveDeal,
		remote: func(ctx context.Context) error {
			_, err := s.remote.UpdateOpportunity(ctx, id, body)
			return err
		},
		revert: func() bool {
			current, ok := s.store.Deal(id)
			if !ok || !reflect.DeepEqual(current, after) {
				return false
			}
			s.store.RestoreDeal(before, index)
			return true
		},
	}, nil
}

// DeleteDeal removes the deal locally and returns the pending remote delete.
func (s *Service) DeleteDeal(id string) (*Op, error) {
	before, ok := s.store.Deal(id)
	if !ok {
		return nil, ErrDealNotFound
	}
	index := s.store.DealIndex(id)
	s.store.DeleteDeal(id)

	return &Op{
		svc:      s,
		action:   "delete",
		entity:   "deal",
		entityID: id,
		fallback: MsgDeleteDeal,
		remote: func(ctx context.Context) error {
			return s.remote.DeleteOpportunity(ctx, id)
		},
		revert: func() bool {
			if s.store.DealIndex(id) >= 0 {
				return false
			}
			s.store.RestoreDeal(before, index)
			return true
		},
	}, nil
}

// MoveDeal puts the deal in stageID (and funnelID when not empty) and returns
// the pending remote stage update. A revert only happens while the deal still
// sits where this move put it, so a later move always wins.
func (s *Service) MoveDeal(id, stageID, funnelID string) (*Op, error) {
	before, ok := s.store.Deal(id)
	if !ok {
		return nil, ErrDealNotFound
	}
	if stageID == "" {
		return nil, fmt.Errorf("%w: target stage is required", ErrValidation)
	}
	s.store.MoveDeal(id, stageID, funnelID)
	after, _ := s.store.Deal(id)

	body := api.OpportunityInput{StageID: ptr(stageID)}
	if funnelID != "" && funnelID != before.FunnelID {
		body.PipelineID = ptr(funnelID)
	}

	return &Op{
		svc:      s,
		action:   "move",
		entity:   "deal",
		entityID: id,
		fallback: MsgMoveDeal,
		remote: func(ctx context.Context) error {
			_, err := s.remote.UpdateOpportunity(ctx, id, body)
			return err
		},
		revert: func() bool {
			current, ok := s.store.Deal(id)
			if !ok || current.Stage != after.Stage || current.FunnelID != after.FunnelID {
				return false
			}
			s.store.MoveDeal(id, before.Stage, before.FunnelID)
			return true
		},
	}, nil
}
