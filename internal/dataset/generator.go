// Package dataset produces the candidate region table, either synthesized
// from a seed or loaded from CSV, JSON and XLSX files.
package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/sells-group/network-planner/internal/model"
)

// RegionCount is the number of regions Generate produces.
const RegionCount = 10

// Attribute ranges drawn by the generator. Upper bounds are exclusive.
const (
	minLatitude  = 30.0
	maxLatitude  = 50.0
	minLongitude = -120.0
	maxLongitude = -70.0
	minTerrain   = 1
	maxTerrain   = 10
	minSignal    = -120
	maxSignal    = -30
	minCost      = 50
	maxCost      = 200
	maxClimate   = 10
)

var descriptions = [RegionCount]string{
	"Flat area with minimal obstacles",
	"Hilly terrain, moderate construction difficulty",
	"Dense urban area with high costs",
	"Suburban area, balanced terrain",
	"Mountainous region, challenging setup",
	"Remote rural area, sparse population",
	"Coastal area, potential for high signal interference",
	"Industrial zone, requires robust infrastructure",
	"Dense forest region, significant signal attenuation",
	"Open plains, optimal for cost-effective deployment",
}

// Generate returns the synthetic region table for seed. The output is a pure
// function of the seed. Columns are drawn one at a time, all latitudes first,
// then all longitudes, and so on.
func Generate(seed int64) []model.Region {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))

	regions := make([]model.Region, RegionCount)
	for i := range regions {
		regions[i].ID = fmt.Sprintf("Region-%d", i+1)
		regions[i].Description = descriptions[i]
	}
	for i := range regions {
		regions[i].Latitude = uniform(rng, minLatitude, maxLatitude)
	}
	for i := range regions {
		regions[i].Longitude = uniform(rng, minLongitude, maxLongitude)
	}
	for i := range regions {
		regions[i].TerrainDifficulty = intRange(rng, minTerrain, maxTerrain)
	}
	for i := range regions {
		regions[i].SignalStrengthDBM = intRange(rng, minSignal, maxSignal)
	}
	for i := range regions {
		regions[i].CostKUSD = intRange(rng, minCost, maxCost)
	}
	for i := range regions {
		regions[i].PriorityArea = model.PriorityAreas[rng.IntN(len(model.PriorityAreas))]
	}
	for i := range regions {
		regions[i].ClimateRisk = intRange(rng, 0, maxClimate)
	}
	return regions
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// intRange draws from [lo, hi).
func intRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo)
}
