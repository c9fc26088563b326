package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

func TestStageTotal(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddDeal(models.Deal{ID: "a", Title: "a", Value: 100, FunnelID: "f1", Stage: "f1-lead"})
	s.AddDeal(models.Deal{ID: "b", Title: "b", Value: 250, FunnelID: "f1", Stage: "f1-lead"})
	s.AddDeal(models.Deal{ID: "c", Title: "c", Value: 0, FunnelID: "f1", Stage: "f1-lead"})
	s.AddDeal(models.Deal{ID: "d", Title: "d", Value: 70, FunnelID: "f1", Stage: "f1-neg"})
	s.AddDeal(models.Deal{ID: "e", Title: "e", Value: 500, FunnelID: "f2", Stage: "f1-lead"})

	assert.Equal(t, 350.0, s.StageTotal("f1", "f1-lead"))
	assert.Len(t, s.StageDeals("f1", "f1-lead"), 3)
	assert.Len(t, s.ActiveFunnelDeals(), 4)
}

func TestViewsFollowMutations(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddDeal(models.Deal{ID: "a", Title: "a", Value: 100, FunnelID: "f1", Stage: "f1-lead"})

	assert.Equal(t, 100.0, s.StageTotal("f1", "f1-lead"))

	s.MoveDeal("a", "f1-neg", "")
	assert.Equal(t, 0.0, s.StageTotal("f1", "f1-lead"))
	assert.Equal(t, 100.0, s.StageTotal("f1", "f1-neg"))

	v := 40.0
	s.UpdateDeal("a", DealPatch{Value: &v})
	assert.Equal(t, 40.0, s.StageTotal("f1", "f1-neg"))
}

func TestSummary(t *testing.T) {
	s := newTestStore()
	s.AddFunnel(salesFunnel("f1"))
	s.AddDeal(models.Deal{ID: "a", Title: "a", Value: 100, FunnelID: "f1", Stage: "f1-lead"})
	s.AddDeal(models.Deal{ID: "b", Title: "b", Value: 300, FunnelID: "f1", Stage: "f1-won"})
	// a stage id is not a stage name
	s.AddDeal(models.Deal{ID: "c", Title: "c", Value: 50, FunnelID: "f1", Stage: "closed"})

	sum := s.Summary()
	assert.Equal(t, 1, sum.Funnels)
	assert.Equal(t, 3, sum.Deals)
	assert.Equal(t, 2, sum.OpenDeals)
	assert.Equal(t, 450.0, sum.TotalValue)
	assert.Equal(t, 300.0, sum.ClosedValue)
}

func TestIsClosedStageName(t *testing.T) {
	assert.True(t, IsClosedStageName("Fechado"))
	assert.True(t, IsClosedStageName(" CLOSED "))
	assert.False(t, IsClosedStageName("Ganho"))
	assert.False(t, IsClosedStageName("won"))
	assert.False(t, IsClosedStageName("Lead"))
}
