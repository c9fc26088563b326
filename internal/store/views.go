package store

import (
	"strings"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

// Views are derived on every call from the current state; nothing is cached.

func (s *Store) FunnelDeals(funnelID string) []models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Deal
	for _, d := range s.deals {
		if d.FunnelID == funnelID {
			out = append(out, cloneDeal(d))
		}
	}
	return out
}

func (s *Store) ActiveFunnelDeals() []models.Deal {
	return s.FunnelDeals(s.ActiveFunnelID())
}

func (s *Store) StageDeals(funnelID, stageID string) []models.Deal {
	return FilterStage(s.FunnelDeals(funnelID), stageID)
}

func (s *Store) StageTotal(funnelID, stageID string) float64 {
	return Total(s.StageDeals(funnelID, stageID))
}

// FilterStage keeps the deals sitting in stageID.
func FilterStage(deals []models.Deal, stageID string) []models.Deal {
	var out []models.Deal
	for _, d := range deals {
		if d.Stage == stageID {
			out = append(out, d)
		}
	}
	return out
}

// Total sums the monetary value of deals.
func Total(deals []models.Deal) float64 {
	var sum float64
	for _, d := range deals {
		sum += d.Value
	}
	return sum
}

// Summary aggregates the numbers shown on the dashboard.
type Summary struct {
	Funnels     int
	Deals       int
	OpenDeals   int
	TotalValue  float64
	ClosedValue float64
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closed := make(map[string]bool)
	for _, f := range s.funnels {
		for _, st := range f.Stages {
			if IsClosedStageName(st.Name) && st.ID != "" {
				closed[st.ID] = true
			}
		}
	}

	sum := Summary{Funnels: len(s.funnels), Deals: len(s.deals)}
	for _, d := range s.deals {
		sum.TotalValue += d.Value
		if closed[d.Stage] {
			sum.ClosedValue += d.Value
			continue
		}
		sum.OpenDeals++
	}
	return sum
}

// IsClosedStageName reports whether a stage name marks won business: closed
// or fechado, ignoring case.
func IsClosedStageName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "closed", "fechado":
		return true
	}
	return false
}
