// Package crmsync keeps the local deal/funnel store and the remote API in
// step. Updates, deletes and moves are applied locally first and then sent;
// creates are sent first and only inserted locally once the server returns
// an id.
package crmsync

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
)

// Remote is the part of the REST API the synchronizer needs.
type Remote interface {
	ListPipelines(ctx context.Context) ([]api.Pipeline, error)
	CreatePipeline(ctx context.Context, name string, stages []api.StageInput) (api.Pipeline, error)
	UpdatePipeline(ctx context.Context, id, name string, stages []api.StageInput) (api.Pipeline, error)
	DeletePipeline(ctx context.Context, id string) error

	ListOpportunities(ctx context.Context, pipelineID string) ([]api.Opportunity, error)
	CreateOpportunity(ctx context.Context, in api.OpportunityInput) (api.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id string, in api.OpportunityInput) (api.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]api.User, error)
	ListContacts(ctx context.Context) ([]api.Contact, error)
	CreateContact(ctx context.Context, in api.ContactInput) (api.Contact, error)
	UpdateContact(ctx context.Context, id string, in api.ContactInput) (api.Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

// Journal records remote writes that failed.
type Journal interface {
	Record(ev models.SyncEvent) error
}

type Service struct {
	store    *store.Store
	remote   Remote
	journal  Journal
	log      *zap.Logger
	rollback bool

	mu    sync.RWMutex
	users []models.User
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithRollback selects whether a failed update, delete or move restores the
// local state it replaced.
func WithRollback(enabled bool) Option {
	return func(s *Service) { s.rollback = enabled }
}

func New(st *store.Store, remote Remote, opts ...Option) *Service {
	s := &Service{
		store:    st,
		remote:   remote,
		log:      zap.NewNop(),
		rollback: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() *store.Store { return s.store }

// --- loading ---

// LoadFunnels replaces the funnel collection with the server listing.
func (s *Service) LoadFunnels(ctx context.Context) error {
	pipelines, err := s.remote.ListPipelines(ctx)
	if err != nil {
		s.log.Error("load funnels", zap.Error(err))
		return fmt.Errorf("load funnels: %w", err)
	}
	funnels := make([]models.Funnel, 0, len(pipelines))
	for _, p := range pipelines {
		funnels = append(funnels, funnelFromPipeline(p))
	}
	s.store.ReplaceFunnels(funnels)
	return nil
}

// LoadDeals fetches the deals of a funnel and ingests the ones not yet known.
func (s *Service) LoadDeals(ctx context.Context, funnelID string) (store.IngestResult, error) {
	if funnelID == "" {
		return store.IngestResult{}, nil
	}
	opps, err := s.remote.ListOpportunities(ctx, funnelID)
	if err != nil {
		s.log.Error("load deals", zap.String("funnel_id", funnelID), zap.Error(err))
		return store.IngestResult{}, fmt.Errorf("load deals: %w", err)
	}

	deals := make([]models.Deal, 0, len(opps))
	for _, o := range opps {
		d := dealFromOpportunity(o)
		if d.FunnelID == "" {
			d.FunnelID = funnelID
		}
		deals = append(deals, d)
	}
	res := s.store.IngestRemote(nil, deals)
	s.log.Debug("ingested deals", zap.String("funnel_id", funnelID), zap.Int("added", res.DealsAdded))
	return res, nil
}

// SwitchFunnel makes id the active funnel and re-fetches its deals.
func (s *Service) SwitchFunnel(ctx context.Context, id string) (store.IngestResult, error) {
	if !s.store.SetActiveFunnel(id) {
		return store.IngestResult{}, ErrFunnelNotFound
	}
	return s.LoadDeals(ctx, id)
}

// Directory is the supporting data the board joins against.
type Directory struct {
	Users    []models.User
	Contacts []models.Contact
}

// LoadDirectory fetches users and contacts in parallel.
func (s *Service) LoadDirectory(ctx context.Context) (Directory, error) {
	var (
		users    []api.User
		contacts []api.Contact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.remote.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.remote.ListContacts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("load directory", zap.Error(err))
		return Directory{}, fmt.Errorf("load directory: %w", err)
	}

	dir := Directory{
		Users:    make([]models.User, 0, len(users)),
		Contacts: make([]models.Contact, 0, len(contacts)),
	}
	for _, u := range users {
		dir.Users = append(dir.Users, userFromAPI(u))
	}
	for _, c := range contacts {
		dir.Contacts = append(dir.Contacts, contactFromAPI(c))
	}
	s.SetUsers(dir.Users)
	return dir, nil
}

func (s *Service) SetUsers(users []models.User) {
	s.mu.Lock()
	s.users = append([]models.User(nil), users...)
	s.mu.Unlock()
}

func (s *Service) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User(nil), s.users...)
}

// ownerSnapshot builds the display snapshot for ownerID. An id missing from
// the directory keeps the previous name when it is the same owner.
func (s *Service) ownerSnapshot(ownerID string, previous *models.Owner) *models.Owner {
	if ownerID == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == ownerID {
			return &models.Owner{ID: u.ID, Name: u.Name}
		}
	}
	if previous != nil && previous.ID == ownerID {
		return &models.Owner{ID: ownerID, Name: previous.Name}
	}
	return &models.Owner{ID: ownerID}
}

// recordFailure logs and journals a failed remote write.
func (s *Service) recordFailure(e *SyncError) {
	s.log.Warn("remote sync failed",
		zap.String("action", e.Action),
		zap.String("entity", e.Entity),
		zap.String("entity_id", e.EntityID),
		zap.Bool("rolled_back", e.RolledBack),
		zap.Error(e.Err),
	)
	if s.journal == nil {
		return
	}
	ev := models.SyncEvent{
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Message:    AlertMessage(e.Err, e.Fallback),
		RolledBack: e.RolledBack,
	}
	if err := s.journal.Record(ev); err != nil {
		s.log.Error("journal sync failure", zap.Error(err))
	}
}
