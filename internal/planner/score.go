package planner

import "github.com/sells-group/network-planner/internal/model"

// Score computes the composite score of a region:
//
//	(1 - w.Terrain) * signal + w.Terrain * (10 - terrain) - w.Cost * cost - w.ClimateRisk * climate
//
// Signal is used as the raw signed dBm value. Weights are not range-checked.
func Score(r model.Region, w model.Weights) float64 {
	return (1-w.Terrain)*float64(r.SignalStrengthDBM) +
		w.Terrain*float64(10-r.TerrainDifficulty) -
		w.Cost*float64(r.CostKUSD) -
		w.ClimateRisk*float64(r.ClimateRisk)
}

// ScoreAll returns a new slice of scored regions in input order.
func ScoreAll(regions []model.Region, w model.Weights) []model.ScoredRegion {
	out := make([]model.ScoredRegion, len(regions))
	for i, r := range regions {
		out[i] = model.ScoredRegion{Region: r, CompositeScore: Score(r, w)}
	}
	return out
}
