package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/network-planner/internal/model"
)

var half = model.Weights{Terrain: 0.5, Cost: 0.5, ClimateRisk: 0.5}

func sampleRegion() model.Region {
	return model.Region{
		ID:                "Region-1",
		SignalStrengthDBM: -80,
		TerrainDifficulty: 3,
		CostKUSD:          100,
		ClimateRisk:       2,
		PriorityArea:      model.AreaRural,
	}
}

func TestScore_WorkedExample(t *testing.T) {
	assert.InDelta(t, -87.5, Score(sampleRegion(), half), 1e-9)
}

func TestScore_ZeroTerrainWeightUsesRawSignal(t *testing.T) {
	w := model.Weights{Terrain: 0, Cost: 0, ClimateRisk: 0}
	assert.InDelta(t, -80, Score(sampleRegion(), w), 1e-9)
}

func TestScore_CostWeightStrictlyDecreases(t *testing.T) {
	r := sampleRegion()
	prev := Score(r, model.Weights{Terrain: 0.5, Cost: 0, ClimateRisk: 0.5})
	for _, c := range []float64{0.1, 0.5, 1, 2} {
		s := Score(r, model.Weights{Terrain: 0.5, Cost: c, ClimateRisk: 0.5})
		assert.Less(t, s, prev)
		prev = s
	}
}

func TestScore_LinearInEachWeight(t *testing.T) {
	r := sampleRegion()
	base := Score(r, half)

	// Each unit of cost weight subtracts the cost.
	assert.InDelta(t, base-float64(r.CostKUSD), Score(r, model.Weights{Terrain: 0.5, Cost: 1.5, ClimateRisk: 0.5}), 1e-9)
	// Each unit of climate weight subtracts the climate risk.
	assert.InDelta(t, base-float64(r.ClimateRisk), Score(r, model.Weights{Terrain: 0.5, Cost: 0.5, ClimateRisk: 1.5}), 1e-9)
	// Each unit of terrain weight trades signal for terrain ease.
	delta := float64(10-r.TerrainDifficulty) - float64(r.SignalStrengthDBM)
	assert.InDelta(t, base+delta, Score(r, model.Weights{Terrain: 1.5, Cost: 0.5, ClimateRisk: 0.5}), 1e-9)
}

func TestScore_AcceptsOutOfRangeWeights(t *testing.T) {
	r := sampleRegion()
	w := model.Weights{Terrain: -1, Cost: 3, ClimateRisk: -2}
	// (2 * -80) + (-1 * 7) - 300 + 4
	assert.InDelta(t, -463, Score(r, w), 1e-9)
}

func TestScoreAll_PreservesOrder(t *testing.T) {
	a := sampleRegion()
	b := sampleRegion()
	b.ID = "Region-2"
	b.CostKUSD = 50

	scored := ScoreAll([]model.Region{a, b}, half)
	assert.Len(t, scored, 2)
	assert.Equal(t, "Region-1", scored[0].ID)
	assert.Equal(t, "Region-2", scored[1].ID)
	assert.InDelta(t, -87.5, scored[0].CompositeScore, 1e-9)
	assert.InDelta(t, -62.5, scored[1].CompositeScore, 1e-9)

	assert.Empty(t, ScoreAll(nil, half))
}
