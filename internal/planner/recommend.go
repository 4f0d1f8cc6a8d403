package planner

import "github.com/sells-group/network-planner/internal/model"

// Recommend picks the highest-scoring region. Ties go to the earliest region
// in input order. Empty input yields the no-viable-region outcome.
func Recommend(scored []model.ScoredRegion) model.Recommendation {
	if len(scored) == 0 {
		return model.NoViableRegion()
	}
	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].CompositeScore > scored[best].CompositeScore {
			best = i
		}
	}
	chosen := scored[best]
	return model.Recommendation{Viable: true, Region: &chosen}
}
