package crmsync

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
)

// FunnelInput is what the funnel editor submits.
type FunnelInput struct {
	Name   string
	Stages []models.Stage
}

// Validate rejects a funnel without a name or without stages.
func (in FunnelInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrFunnelNameRequired
	}
	if len(in.Stages) == 0 {
		return ErrNoStages
	}
	return nil
}

// CreateFunnel saves a new funnel remotely, then adds it locally and makes
// it active.
func (s *Service) CreateFunnel(ctx context.Context, in FunnelInput) (models.Funnel, error) {
	if err := in.Validate(); err != nil {
		return models.Funnel{}, err
	}

	created, err := s.remote.CreatePipeline(ctx, in.Name, stageInputs(in.Stages))
	if err == nil && created.ID == "" {
		err = errors.New("server returned no id")
	}
	if err != nil {
		syncErr := &SyncError{Action: "create", Entity: "funnel", Fallback: MsgSaveFunnel, Err: err}
		s.recordFailure(syncErr)
		return models.Funnel{}, syncErr
	}

	f := funnelFromPipeline(created)
	if f.Name == "" {
		f.Name = in.Name
	}
	s.store.AddFunnel(f)
	s.store.SetActiveFunnel(f.ID)
	stored, _ := s.store.Funnel(f.ID)
	return stored, nil
}

// UpdateFunnel applies the edited name and stages locally and returns the
// pending remote update. When the server answers with stages (which carry
// ids for newly added stages) they replace the local ones.
func (s *Service) UpdateFunnel(id string, in FunnelInput) (*Op, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	before, ok := s.store.Funnel(id)
	if !ok {
		return nil, ErrFunnelNotFound
	}
	index := s.store.FunnelIndex(id)

	stages := append([]models.Stage(nil), in.Stages...)
	s.store.UpdateFunnel(id, store.FunnelPatch{Name: ptr(in.Name), Stages: &stages})
	after, _ := s.store.Funnel(id)

	var saved []models.Stage
	return &Op{
		svc:      s,
		action:   "update",
		entity:   "funnel",
		entityID: id,
		fallback: MsgSaveFunnel,
		remote: func(ctx context.Context) error {
			p, err := s.remote.UpdatePipeline(ctx, id, in.Name, stageInputs(in.Stages))
			if err != nil {
				return err
			}
			saved = funnelFromPipeline(p).Stages
			return nil
		},
		onCommit: func() {
			if len(saved) == 0 {
				return
			}
			current, ok := s.store.Funnel(id)
			if ok && reflect.DeepEqual(current, after) {
				s.store.UpdateFunnel(id, store.FunnelPatch{Stages: &saved})
			}
		},
		revert: func() bool {
			current, ok := s.store.Funnel(id)
			if !ok || !reflect.DeepEqual(current, after) {
				return false
			}
			s.store.RestoreFunnel(before, index, false)
			return true
		},
	}, nil
}

// DeleteFunnel removes the funnel locally (the active funnel falls back to
// the first remaining one) and returns the pending remote delete.
func (s *Service) DeleteFunnel(id string) (*Op, error) {
	before, ok := s.store.Funnel(id)
	if !ok {
		return nil, ErrFunnelNotFound
	}
	index := s.store.FunnelIndex(id)
	wasActive := s.store.ActiveFunnelID() == id
	s.store.DeleteFunnel(id)

	return &Op{
		svc:      s,
		action:   "delete",
		entity:   "funnel",
		entityID: id,
		fallback: MsgDeleteFunnel,
		remote: func(ctx context.Context) error {
			return s.remote.DeletePipeline(ctx, id)
		},
		revert: func() bool {
			if s.store.FunnelIndex(id) >= 0 {
				return false
			}
			s.store.RestoreFunnel(before, index, wasActive)
			return true
		},
	}, nil
}
