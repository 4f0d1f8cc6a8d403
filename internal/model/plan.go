package model

import (
	"fmt"
	"strings"
)

// NoViableRegionMessage explains an empty recommendation.
const NoViableRegionMessage = "No viable deployment regions within the specified parameters."

// Recommendation is either a viable region or the no-viable-region outcome.
type Recommendation struct {
	Viable  bool          `json:"viable"`
	Region  *ScoredRegion `json:"region,omitempty"`
	Message string        `json:"message,omitempty"`
}

// NoViableRegion returns the empty-result recommendation.
func NoViableRegion() Recommendation {
	return Recommendation{Viable: false, Message: NoViableRegionMessage}
}

// Markdown renders the recommendation for direct display.
func (r Recommendation) Markdown() string {
	if !r.Viable || r.Region == nil {
		return r.Message
	}
	best := r.Region
	lines := []string{
		fmt.Sprintf("**Recommended Region:** %s", best.ID),
		fmt.Sprintf("**Composite Score:** %.2f", best.CompositeScore),
		fmt.Sprintf("**Signal Strength:** %d dBm", best.SignalStrengthDBM),
		fmt.Sprintf("**Terrain Difficulty:** %d", best.TerrainDifficulty),
		fmt.Sprintf("**Climate Risk:** %d", best.ClimateRisk),
		fmt.Sprintf("**Estimated Cost:** $%dk", best.CostKUSD),
		fmt.Sprintf("**Description:** %s", best.Description),
		fmt.Sprintf("**Location Name:** %s", best.LocationOrNA()),
	}
	return strings.Join(lines, "  \n")
}

// Plan is the output of one planning pass.
type Plan struct {
	ID                    string         `json:"id"`
	Request               PlanRequest    `json:"request"`
	FilteredRegions       []ScoredRegion `json:"filtered_regions"`
	Recommendation        Recommendation `json:"recommendation"`
	LocationNamesIncluded bool           `json:"location_names_included"`
}
