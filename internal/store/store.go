// Package store holds the in-memory registry of funnels and deals that backs
// the board. Every mutation is a plain in-memory change: nothing here talks
// to the network and nothing here can fail.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

// DefaultStage is assigned to deals added without a stage.
const DefaultStage = "lead"

type Store struct {
	mu sync.RWMutex

	funnels        []models.Funnel
	deals          []models.Deal
	activeFunnelID string

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FunnelPatch lists the funnel fields to overwrite. Nil fields are left alone.
type FunnelPatch struct {
	Name   *string
	Stages *[]models.Stage
}

// DealPatch lists the deal fields to overwrite. Nil fields are left alone.
// Setting OwnerID always replaces the Owner snapshot with Owner (nil clears it).
type DealPatch struct {
	Title         *string
	Value         *float64
	Stage         *string
	FunnelID      *string
	ContactID     *string
	Probability   *int
	ExpectedClose *time.Time
	OwnerID       *string
	Owner         *models.Owner

	Description   *string
	ContactNumber *string
	Website       *string
	Address       *string
	ClientRole    *string
	ClientName    *string
	ClientPhone   *string
	ClientEmail   *string
	ClientAddress *string
	SocialLink1   *string
	SocialLink2   *string
	ExtraLinks    *[]string
}

// --- funnels ---

func (s *Store) Funnels() []models.Funnel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Funnel, len(s.funnels))
	for i, f := range s.funnels {
		out[i] = cloneFunnel(f)
	}
	return out
}

func (s *Store) Funnel(id string) (models.Funnel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.funnelIndex(id)
	if i < 0 {
		return models.Funnel{}, false
	}
	return cloneFunnel(s.funnels[i]), true
}

func (s *Store) ActiveFunnelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeFunnelID
}

func (s *Store) ActiveFunnel() (models.Funnel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.funnelIndex(s.activeFunnelID)
	if i < 0 {
		return models.Funnel{}, false
	}
	return cloneFunnel(s.funnels[i]), true
}

// SetActiveFunnel switches the active funnel. Unknown ids are rejected.
func (s *Store) SetActiveFunnel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.funnelIndex(id) < 0 {
		return false
	}
	s.activeFunnelID = id
	return true
}

// AddFunnel inserts f unless a funnel with the same id exists. The first
// funnel added while none is active becomes active.
func (s *Store) AddFunnel(f models.Funnel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addFunnelLocked(f)
}

func (s *Store) addFunnelLocked(f models.Funnel) bool {
	if f.ID == "" {
		f.ID = s.newID()
	}
	if s.funnelIndex(f.ID) >= 0 {
		return false
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	if f.Stages == nil {
		f.Stages = []models.Stage{}
	}
	s.funnels = append(s.funnels, cloneFunnel(f))
	if s.activeFunnelID == "" {
		s.activeFunnelID = f.ID
	}
	return true
}

func (s *Store) UpdateFunnel(id string, patch FunnelPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.funnelIndex(id)
	if i < 0 {
		return false
	}
	if patch.Name != nil {
		s.funnels[i].Name = *patch.Name
	}
	if patch.Stages != nil {
		s.funnels[i].Stages = append([]models.Stage{}, (*patch.Stages)...)
	}
	return true
}

// DeleteFunnel removes the funnel. When it was active, the first remaining
// funnel becomes active, or none when the collection is empty.
func (s *Store) DeleteFunnel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.funnelIndex(id)
	if i < 0 {
		return false
	}
	s.funnels = append(s.funnels[:i], s.funnels[i+1:]...)
	if s.activeFunnelID == id {
		s.activeFunnelID = ""
		if len(s.funnels) > 0 {
			s.activeFunnelID = s.funnels[0].ID
		}
	}
	return true
}

// ReplaceFunnels swaps the whole collection for a fresh server listing and
// keeps the active funnel if it survived, else falls back to the first one.
func (s *Store) ReplaceFunnels(funnels []models.Funnel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funnels = s.funnels[:0]
	active := s.activeFunnelID
	s.activeFunnelID = ""
	for _, f := range funnels {
		s.addFunnelLocked(f)
	}
	if s.funnelIndex(active) >= 0 {
		s.activeFunnelID = active
	}
}

// RestoreFunnel puts a previously removed or modified funnel back as it was,
// at its old position. Used to revert a failed remote write.
func (s *Store) RestoreFunnel(f models.Funnel, index int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.funnelIndex(f.ID); i >= 0 {
		s.funnels[i] = cloneFunnel(f)
	} else {
		index = clamp(index, len(s.funnels))
		s.funnels = append(s.funnels, models.Funnel{})
		copy(s.funnels[index+1:], s.funnels[index:])
		s.funnels[index] = cloneFunnel(f)
	}
	if active {
		s.activeFunnelID = f.ID
	}
}

// FunnelIndex returns the position of the funnel, or -1.
func (s *Store) FunnelIndex(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.funnelIndex(id)
}

func (s *Store) funnelIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.funnels {
		if s.funnels[i].ID == id {
			return i
		}
	}
	return -1
}

// --- deals ---

func (s *Store) Deals() []models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Deal, len(s.deals))
	for i, d := range s.deals {
		out[i] = cloneDeal(d)
	}
	return out
}

func (s *Store) Deal(id string) (models.Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.dealIndex(id)
	if i < 0 {
		return models.Deal{}, false
	}
	return cloneDeal(s.deals[i]), true
}

// AddDeal inserts d unless a deal with the same id exists, in which case the
// existing deal is left untouched. Unset optional fields get defaults.
func (s *Store) AddDeal(d models.Deal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addDealLocked(d)
}

func (s *Store) addDealLocked(d models.Deal) bool {
	if d.ID == "" {
		d.ID = s.newID()
	}
	if s.dealIndex(d.ID) >= 0 {
		return false
	}
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.ExpectedClose.IsZero() {
		d.ExpectedClose = now
	}
	if d.Stage == "" {
		d.Stage = DefaultStage
	}
	s.deals = append(s.deals, cloneDeal(d))
	return true
}

func (s *Store) UpdateDeal(id string, patch DealPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.dealIndex(id)
	if i < 0 {
		return false
	}
	applyDealPatch(&s.deals[i], patch)
	return true
}

func (s *Store) DeleteDeal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.dealIndex(id)
	if i < 0 {
		return false
	}
	s.deals = append(s.deals[:i], s.deals[i+1:]...)
	return true
}

// MoveDeal puts the deal in stageID and, when funnelID is not empty, in that
// funnel. The stage is not checked against the funnel.
func (s *Store) MoveDeal(id, stageID, funnelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.dealIndex(id)
	if i < 0 {
		return false
	}
	s.deals[i].Stage = stageID
	if funnelID != "" {
		s.deals[i].FunnelID = funnelID
	}
	return true
}

// RestoreDeal puts a deal snapshot back at its old position, overwriting the
// current copy if the deal is still present.
func (s *Store) RestoreDeal(d models.Deal, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.dealIndex(d.ID); i >= 0 {
		s.deals[i] = cloneDeal(d)
		return
	}
	index = clamp(index, len(s.deals))
	s.deals = append(s.deals, models.Deal{})
	copy(s.deals[index+1:], s.deals[index:])
	s.deals[index] = cloneDeal(d)
}

// DealIndex returns the position of the deal, or -1.
func (s *Store) DealIndex(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dealIndex(id)
}

func (s *Store) dealIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.deals {
		if s.deals[i].ID == id {
			return i
		}
	}
	return -1
}

// IngestResult counts the entities an ingestion actually added.
type IngestResult struct {
	FunnelsAdded int
	DealsAdded   int
}

// IngestRemote absorbs server-fetched funnels and deals. Only unknown ids are
// added; fields of already known entities are not reconciled, so repeated
// calls with overlapping data never duplicate anything.
func (s *Store) IngestRemote(funnels []models.Funnel, deals []models.Deal) IngestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res IngestResult
	for _, f := range funnels {
		if f.ID == "" {
			continue
		}
		if s.addFunnelLocked(f) {
			res.FunnelsAdded++
		}
	}
	for _, d := range deals {
		if d.ID == "" {
			continue
		}
		if s.addDealLocked(d) {
			res.DealsAdded++
		}
	}
	return res
}

func applyDealPatch(d *models.Deal, p DealPatch) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	setString(&d.Title, p.Title)
	setString(&d.Stage, p.Stage)
	setString(&d.FunnelID, p.FunnelID)
	setString(&d.ContactID, p.ContactID)
	setString(&d.Description, p.Description)
	setString(&d.ContactNumber, p.ContactNumber)
	setString(&d.Website, p.Website)
	setString(&d.Address, p.Address)
	setString(&d.ClientRole, p.ClientRole)
	setString(&d.ClientName, p.ClientName)
	setString(&d.ClientPhone, p.ClientPhone)
	setString(&d.ClientEmail, p.ClientEmail)
	setString(&d.ClientAddress, p.ClientAddress)
	setString(&d.SocialLink1, p.SocialLink1)
	setString(&d.SocialLink2, p.SocialLink2)

	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Probability != nil {
		d.Probability = *p.Probability
	}
	if p.ExpectedClose != nil {
		d.ExpectedClose = *p.ExpectedClose
	}
	if p.ExtraLinks != nil {
		d.ExtraLinks = append([]string(nil), (*p.ExtraLinks)...)
	}

	if p.OwnerID != nil {
		d.OwnerID = *p.OwnerID
		d.Owner = nil
		if p.Owner != nil {
			o := *p.Owner
			d.Owner = &o
		}
	} else if p.Owner != nil && p.Owner.ID == d.OwnerID {
		o := *p.Owner
		d.Owner = &o
	}
}

func cloneFunnel(f models.Funnel) models.Funnel {
	f.Stages = append([]models.Stage{}, f.Stages...)
	return f
}

func cloneDeal(d models.Deal) models.Deal {
	if d.Owner != nil {
		o := *d.Owner
		d.Owner = &o
	}
	if d.ExtraLinks != nil {
		d.ExtraLinks = append([]string(nil), d.ExtraLinks...)
	}
	return d
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
