package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
)

// stubRemote only implements the stage update; anything else panics.
type stubRemote struct {
	crmsync.Remote
	updates int
	err     error
}

func (r *stubRemote) UpdateOpportunity(ctx context.Context, id string, in api.OpportunityInput) (api.Opportunity, error) {
	r.updates++
	return api.Opportunity{ID: api.ID(id)}, r.err
}

type fakeFrames struct {
	next      int
	pending   map[int]func()
	cancelled []int
}

func newFakeFrames() *fakeFrames { return &fakeFrames{pending: map[int]func(){}} }

func (f *fakeFrames) Request(fn func()) int {
	f.next++
	f.pending[f.next] = fn
	return f.next
}

func (f *fakeFrames) Cancel(h int) {
	delete(f.pending, h)
	f.cancelled = append(f.cancelled, h)
}

// flush runs every pending frame.
func (f *fakeFrames) flush() {
	for h, fn := range f.pending {
		delete(f.pending, h)
		fn()
	}
}

type fakeViewport struct {
	left, right int
	scrolled    []int
}

func (v *fakeViewport) Bounds() (int, int) { return v.left, v.right }
func (v *fakeViewport) ScrollBy(d int)     { v.scrolled = append(v.scrolled, d) }

func newBoardFixture(t *testing.T) (*Board, *crmsync.Service, *stubRemote) {
	t.Helper()
	st := store.New()
	st.AddFunnel(models.Funnel{ID: "f1", Name: "Vendas", Stages: []models.Stage{
		{ID: "s1", Name: "Lead"}, {ID: "s2", Name: "Negociação"},
	}})
	st.AddDeal(models.Deal{ID: "d1", Title: "ACME", Stage: "s1", FunnelID: "f1"})
	remote := &stubRemote{}
	svc := crmsync.New(st, remote)
	return New(svc, NewAutoScroller(newFakeFrames(), &fakeViewport{right: 800})), svc, remote
}

func TestDrag_StateMachine(t *testing.T) {
	var d Drag
	_, ok := d.Active()
	assert.False(t, ok)

	_, ok = d.Drop("s2")
	assert.False(t, ok, "drop while idle")

	d.Start(DragSource{DealID: "d1", StageID: "s1", FunnelID: "f1"})
	assert.True(t, d.Dragging())
	src, ok := d.Drop("s2")
	require.True(t, ok)
	assert.Equal(t, "d1", src.DealID)
	assert.False(t, d.Dragging())

	d.Start(DragSource{DealID: "d1", StageID: "s1"})
	_, ok = d.Drop("s1")
	assert.False(t, ok, "self drop")
	assert.False(t, d.Dragging())

	d.Start(DragSource{DealID: "d1", StageID: "s1"})
	d.Cancel()
	assert.False(t, d.Dragging())
}

func TestBoard_SelfDropIsNoop(t *testing.T) {
	b, svc, remote := newBoardFixture(t)

	b.StartDrag(DragSource{DealID: "d1", StageID: "s1", FunnelID: "f1"})
	op, err := b.Drop("s1")
	require.NoError(t, err)
	assert.Nil(t, op)

	d, _ := svc.Store().Deal("d1")
	assert.Equal(t, "s1", d.Stage)
	assert.Equal(t, "f1", d.FunnelID)
	assert.Zero(t, remote.updates)
	_, dragging := b.Dragging()
	assert.False(t, dragging)
}

func TestBoard_DropMovesThenSyncs(t *testing.T) {
	b, svc, remote := newBoardFixture(t)

	b.StartDrag(DragSource{DealID: "d1", StageID: "s1", FunnelID: "f1"})
	op, err := b.Drop("s2")
	require.NoError(t, err)
	require.NotNil(t, op)

	d, _ := svc.Store().Deal("d1")
	assert.Equal(t, "s2", d.Stage)
	assert.Zero(t, remote.updates, "remote write is left to the caller")

	require.NoError(t, op.Sync(context.Background()))
	assert.Equal(t, 1, remote.updates)
}

func TestBoard_FailedDropRollsBack(t *testing.T) {
	b, svc, remote := newBoardFixture(t)
	remote.err = errors.New("offline")

	b.StartDrag(DragSource{DealID: "d1", StageID: "s1", FunnelID: "f1"})
	op, err := b.Drop("s2")
	require.NoError(t, err)
	err = op.Sync(context.Background())
	require.Error(t, err)

	d, _ := svc.Store().Deal("d1")
	assert.Equal(t, "s1", d.Stage)
	assert.Equal(t, crmsync.MsgMoveDeal, crmsync.AlertMessage(err, ""))
}

func TestAutoScroller_Delta(t *testing.T) {
	a := NewAutoScroller(newFakeFrames(), &fakeViewport{left: 0, right: 800})

	assert.Equal(t, -12, a.Delta(10))
	assert.Equal(t, -12, a.Delta(79))
	assert.Equal(t, 0, a.Delta(80))
	assert.Equal(t, 0, a.Delta(400))
	assert.Equal(t, 0, a.Delta(720))
	assert.Equal(t, 12, a.Delta(721))
}

func TestAutoScroller_SingleOutstandingFrame(t *testing.T) {
	frames := newFakeFrames()
	view := &fakeViewport{right: 800}
	a := NewAutoScroller(frames, view)

	a.DragOver(790)
	a.DragOver(795)
	a.DragOver(5)
	assert.Len(t, frames.pending, 1)
	assert.Equal(t, []int{1, 2}, frames.cancelled)

	frames.flush()
	assert.Equal(t, []int{-12}, view.scrolled)
	assert.False(t, a.Pending())

	a.DragOver(400)
	assert.Empty(t, frames.pending, "no frame outside the edge zones")
}

func TestBoard_DropStopsScrolling(t *testing.T) {
	frames := newFakeFrames()
	view := &fakeViewport{right: 800}
	b, _, _ := newBoardFixture(t)
	b.scroll = NewAutoScroller(frames, view)

	b.DragOver(790)
	assert.Empty(t, frames.pending, "idle board does not scroll")

	b.StartDrag(DragSource{DealID: "d1", StageID: "s1"})
	b.DragOver(790)
	require.Len(t, frames.pending, 1)

	_, err := b.Drop("s1")
	require.NoError(t, err)
	assert.Empty(t, frames.pending)
	assert.Empty(t, view.scrolled)
}
