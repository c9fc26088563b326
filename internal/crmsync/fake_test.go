package crmsync

import (
	"context"
	"strconv"
	"sync"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

// fakeRemote records calls and fails the methods named in fail.
type fakeRemote struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error

	pipelines []api.Pipeline
	opps      map[string][]api.Opportunity
	users     []api.User
	contacts  []api.Contact

	lastOpportunity api.OpportunityInput
	lastStages      []api.StageInput
	updatedStages   []api.PipelineStage
	nextID          int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls: map[string]int{},
		fail:  map[string]error{},
		opps:  map[string][]api.Opportunity{},
	}
}

func (f *fakeRemote) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeRemote) newID() api.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return api.ID("srv-" + strconv.Itoa(f.nextID))
}

func (f *fakeRemote) ListPipelines(ctx context.Context) ([]api.Pipeline, error) {
	if err := f.hit("ListPipelines"); err != nil {
		return nil, err
	}
	return f.pipelines, nil
}

func (f *fakeRemote) CreatePipeline(ctx context.Context, name string, stages []api.StageInput) (api.Pipeline, error) {
	if err := f.hit("CreatePipeline"); err != nil {
		return api.Pipeline{}, err
	}
	p := api.Pipeline{ID: f.newID(), Name: name}
	for i, st := range stages {
		p.Stages = append(p.Stages, api.PipelineStage{ID: api.ID(string(p.ID) + "-st" + strconv.Itoa(i)), Name: st.Name, Color: st.Color})
	}
	return p, nil
}

func (f *fakeRemote) UpdatePipeline(ctx context.Context, id, name string, stages []api.StageInput) (api.Pipeline, error) {
	if err := f.hit("UpdatePipeline"); err != nil {
		return api.Pipeline{}, err
	}
	f.mu.Lock()
	f.lastStages = stages
	out := f.updatedStages
	f.mu.Unlock()
	return api.Pipeline{ID: api.ID(id), Name: name, Stages: out}, nil
}

func (f *fakeRemote) DeletePipeline(ctx context.Context, id string) error {
	return f.hit("DeletePipeline")
}

func (f *fakeRemote) ListOpportunities(ctx context.Context, pipelineID string) ([]api.Opportunity, error) {
	if err := f.hit("ListOpportunities"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opps[pipelineID], nil
}

func (f *fakeRemote) CreateOpportunity(ctx context.Context, in api.OpportunityInput) (api.Opportunity, error) {
	if err := f.hit("CreateOpportunity"); err != nil {
		return api.Opportunity{}, err
	}
	f.mu.Lock()
	f.lastOpportunity = in
	f.mu.Unlock()
	return api.Opportunity{ID: f.newID(), Title: *in.Title}, nil
}

func (f *fakeRemote) UpdateOpportunity(ctx context.Context, id string, in api.OpportunityInput) (api.Opportunity, error) {
	f.mu.Lock()
	f.lastOpportunity = in
	f.mu.Unlock()
	if err := f.hit("UpdateOpportunity"); err != nil {
		return api.Opportunity{}, err
	}
	return api.Opportunity{ID: api.ID(id)}, nil
}

func (f *fakeRemote) DeleteOpportunity(ctx context.Context, id string) error {
	return f.hit("DeleteOpportunity")
}

func (f *fakeRemote) ListUsers(ctx context.Context) ([]api.User, error) {
	if err := f.hit("ListUsers"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeRemote) ListContacts(ctx context.Context) ([]api.Contact, error) {
	if err := f.hit("ListContacts"); err != nil {
		return nil, err
	}
	return f.contacts, nil
}

func (f *fakeRemote) CreateContact(ctx context.Context, in api.ContactInput) (api.Contact, error) {
	if err := f.hit("CreateContact"); err != nil {
		return api.Contact{}, err
	}
	return api.Contact{ID: f.newID(), Name: in.Name, Phone: in.Phone, Status: in.Status}, nil
}

func (f *fakeRemote) UpdateContact(ctx context.Context, id string, in api.ContactInput) (api.Contact, error) {
	if err := f.hit("UpdateContact"); err != nil {
		return api.Contact{}, err
	}
	return api.Contact{}, nil
}

func (f *fakeRemote) DeleteContact(ctx context.Context, id string) error {
	return f.hit("DeleteContact")
}

type memJournal struct {
	mu     sync.Mutex
	events []models.SyncEvent
}

func (j *memJournal) Record(ev models.SyncEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

type recordingAlerter struct{ messages []string }

func (a *recordingAlerter) Alert(message string) { a.messages = append(a.messages, message) }
