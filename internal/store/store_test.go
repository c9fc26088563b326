package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	n := 0
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return "tmp-" + string(rune('0'+n))
		}),
	)
}

func salesFunnel(id string) models.Funnel {
	return models.Funnel{
		ID:   id,
		Name: "Sales " + id,
		Stages: []models.Stage{
			{ID: id + "-lead", Name: "Lead", Color: "#F59E0B"},
			{ID: id + "-neg", Name: "Negociação", Color: "#8B5CF6"},
			{ID: id + "-won", Name: "Fechado", Color: "#10B981"},
		},
	}
}

func TestAddFunnel_FirstBecomesActive(t *testing.T) {
	s := newTestStore()

	require.True(t, s.AddFunnel(salesFunnel("f1")))
	require.True(t, s.AddFunnel(salesFunnel("f2")))

	assert.Equal(t, "f1", s.ActiveFunnelID())
	assert.Len(t, s.Funnels(), 2)
}

func TestAddFunnel_DuplicateIsSilentNoop(t *testing.T) {
	s := newTestStore()
	require.True(t, s.AddFunnel(salesFunnel("f1")))

	dup := salesFunnel("f1")
	dup.Name = "Other"
	assert.False(t, s.AddFunnel(dup))

	f, ok := s.Funnel("f1")
	require.True(t, ok)
	assert.Equal(t, "Sales f1", f.Name)
	assert.Len(t, s.Funnels(), 1)
}

func TestUpdateFunnel(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))

	name := "Renamed"
	stages := []models.Stage{{ID: "x", Name: "Only"}}
	require.True(t, s.UpdateFunnel("f1", FunnelPatch{Name: &name, Stages: &stages}))
	assert.False(t, s.UpdateFunnel("missing", FunnelPatch{Name: &name}))

	f, _ := s.Funnel("f1")
	assert.Equal(t, "Renamed", f.Name)
	assert.Equal(t, stages, f.Stages)
}

func TestDeleteFunnel_ActiveFallback(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddFunnel(salesFunnel("f2"))
	s.AddFunnel(salesFunnel("f3"))
	require.True(t, s.SetActiveFunnel("f2"))

	require.True(t, s.DeleteFunnel("f2"))
	assert.Equal(t, "f1", s.ActiveFunnelID())

	require.True(t, s.DeleteFunnel("f3"))
	assert.Equal(t, "f1", s.ActiveFunnelID(), "deleting an inactive funnel keeps the active one")

	require.True(t, s.DeleteFunnel("f1"))
	assert.Equal(t, "", s.ActiveFunnelID())
	_, ok := s.ActiveFunnel()
	assert.False(t, ok)
}

func TestSetActiveFunnel_UnknownRejected(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))

	assert.False(t, s.SetActiveFunnel("nope"))
	assert.Equal(t, "f1", s.ActiveFunnelID())
}

func TestReplaceFunnels_KeepsSurvivingActive(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddFunnel(salesFunnel("f2"))
	s.SetActiveFunnel("f2")

	s.ReplaceFunnels([]models.Funnel{salesFunnel("f3"), salesFunnel("f2")})
	assert.Equal(t, "f2", s.ActiveFunnelID())

	s.ReplaceFunnels([]models.Funnel{salesFunnel("f4")})
	assert.Equal(t, "f4", s.ActiveFunnelID())

	s.ReplaceFunnels(nil)
	assert.Equal(t, "", s.ActiveFunnelID())
}

func TestAddDeal_Defaults(t *testing.T) {
	s := newTestStore()
	require.True(t, s.AddDeal(models.Deal{Title: "No id"}))

	deals := s.Deals()
	require.Len(t, deals, 1)
	d := deals[0]
	assert.Equal(t, "tmp-1", d.ID)
	assert.Equal(t, DefaultStage, d.Stage)
	assert.Equal(t, 0, d.Probability)
	assert.Equal(t, fixedNow, d.CreatedAt)
	assert.Equal(t, fixedNow, d.ExpectedClose)
}

func TestAddDeal_DuplicateDoesNotChangeExisting(t *testing.T) {
	s := newTestStore()
	orig := models.Deal{ID: "d1", Title: "Original", Value: 100, Stage: "s1", FunnelID: "f1", Probability: 40}
	require.True(t, s.AddDeal(orig))

	assert.False(t, s.AddDeal(models.Deal{ID: "d1", Title: "Changed", Value: 999, Stage: "s2", Probability: 90}))

	d, ok := s.Deal("d1")
	require.True(t, ok)
	assert.Equal(t, "Original", d.Title)
	assert.Equal(t, 100.0, d.Value)
	assert.Equal(t, "s1", d.Stage)
	assert.Equal(t, 40, d.Probability)

	// updateDeal, by contrast, does change fields
	title := "Changed"
	require.True(t, s.UpdateDeal("d1", DealPatch{Title: &title}))
	d, _ = s.Deal("d1")
	assert.Equal(t, "Changed", d.Title)
}

func TestUpdateDeal_OwnerSnapshotFollowsID(t *testing.T) {
	s := newTestStore()
	s.AddDeal(models.Deal{ID: "d1", Title: "Deal", OwnerID: "u1", Owner: &models.Owner{ID: "u1", Name: "Ana"}})

	ownerID := "u2"
	s.UpdateDeal("d1", DealPatch{OwnerID: &ownerID, Owner: &models.Owner{ID: "u2", Name: "Bruno"}})
	d, _ := s.Deal("d1")
	assert.Equal(t, "u2", d.OwnerID)
	require.NotNil(t, d.Owner)
	assert.Equal(t, "Bruno", d.Owner.Name)

	cleared := ""
	s.UpdateDeal("d1", DealPatch{OwnerID: &cleared})
	d, _ = s.Deal("d1")
	assert.Nil(t, d.Owner)
}

func TestDeleteDeal(t *testing.T) {
	s := newTestStore()
	s.AddDeal(models.Deal{ID: "d1", Title: "a"})
	s.AddDeal(models.Deal{ID: "d2", Title: "b"})

	require.True(t, s.DeleteDeal("d1"))
	assert.False(t, s.DeleteDeal("d1"))
	assert.Len(t, s.Deals(), 1)
}

func TestMoveDeal(t *testing.T) {
	s := newTestStore()
	s.AddDeal(models.Deal{ID: "d1", Title: "a", Stage: "s1", FunnelID: "f1"})

	require.True(t, s.MoveDeal("d1", "s2", ""))
	d, _ := s.Deal("d1")
	assert.Equal(t, "s2", d.Stage)
	assert.Equal(t, "f1", d.FunnelID)

	// target stage is not validated against the target funnel
	require.True(t, s.MoveDeal("d1", "not-a-stage", "f9"))
	d, _ = s.Deal("d1")
	assert.Equal(t, "not-a-stage", d.Stage)
	assert.Equal(t, "f9", d.FunnelID)

	assert.False(t, s.MoveDeal("missing", "s1", ""))
}

func TestRestoreDeal_ReinsertsAtIndex(t *testing.T) {
	s := newTestStore()
	s.AddDeal(models.Deal{ID: "d1", Title: "a"})
	s.AddDeal(models.Deal{ID: "d2", Title: "b"})
	s.AddDeal(models.Deal{ID: "d3", Title: "c"})

	snap, _ := s.Deal("d2")
	idx := s.DealIndex("d2")
	s.DeleteDeal("d2")
	s.RestoreDeal(snap, idx)

	var ids []string
	for _, d := range s.Deals() {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"d1", "d2", "d3"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreFunnel_Reactivates(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddFunnel(salesFunnel("f2"))

	snap, _ := s.Funnel("f1")
	s.DeleteFunnel("f1")
	assert.Equal(t, "f2", s.ActiveFunnelID())

	s.RestoreFunnel(snap, 0, true)
	assert.Equal(t, "f1", s.ActiveFunnelID())
	assert.Equal(t, 0, s.FunnelIndex("f1"))
}

func TestIngestRemote_Idempotent(t *testing.T) {
	s := newTestStore()
	funnels := []models.Funnel{salesFunnel("f1"), salesFunnel("f2")}
	deals := []models.Deal{
		{ID: "d1", Title: "a", FunnelID: "f1", Stage: "f1-lead"},
		{ID: "d2", Title: "b", FunnelID: "f1", Stage: "f1-neg"},
	}

	first := s.IngestRemote(funnels, deals)
	assert.Equal(t, IngestResult{FunnelsAdded: 2, DealsAdded: 2}, first)

	// overlapping re-fetch with one new deal and a changed known deal
	again := []models.Deal{
		{ID: "d1", Title: "server changed", FunnelID: "f1", Stage: "f1-won"},
		{ID: "d3", Title: "c", FunnelID: "f1", Stage: "f1-lead"},
	}
	second := s.IngestRemote(funnels, again)
	assert.Equal(t, IngestResult{DealsAdded: 1}, second)

	assert.Len(t, s.Funnels(), 2)
	assert.Len(t, s.Deals(), 3)
	d1, _ := s.Deal("d1")
	assert.Equal(t, "a", d1.Title, "known ids are not reconciled")
	assert.Equal(t, "f1-lead", d1.Stage)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddDeal(models.Deal{ID: "d1", Title: "a", ExtraLinks: []string{"x"}})

	f, _ := s.Funnel("f1")
	f.Stages[0].Name = "mutated"
	d, _ := s.Deal("d1")
	d.ExtraLinks[0] = "mutated"

	f2, _ := s.Funnel("f1")
	d2, _ := s.Deal("d1")
	assert.Equal(t, "Lead", f2.Stages[0].Name)
	assert.Equal(t, "x", d2.ExtraLinks[0])
}
