// Package model defines the planning domain types shared across the planner,
// dataset, annotation and presentation packages.
package model

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PriorityArea is the deployment-context tag used as a hard filter.
type PriorityArea string

const (
	// AreaRural marks sparsely populated regions.
	AreaRural PriorityArea = "Rural"
	// AreaUrban marks dense city regions.
	AreaUrban PriorityArea = "Urban"
	// AreaSuburban marks regions on the fringe of a city.
	AreaSuburban PriorityArea = "Suburban"
)

// PriorityAreas lists every valid area in display order.
var PriorityAreas = []PriorityArea{AreaRural, AreaUrban, AreaSuburban}

// Valid reports whether a is one of the known priority areas.
func (a PriorityArea) Valid() bool {
	for _, known := range PriorityAreas {
		if a == known {
			return true
		}
	}
	return false
}

// ParsePriorityArea normalizes user input ("rural", " URBAN ") into a
// PriorityArea. Unknown values return a ValidationError that suggests the
// closest known area when the input looks like a typo.
func ParsePriorityArea(s string) (PriorityArea, error) {
	trimmed := strings.TrimSpace(s)
	area := PriorityArea(cases.Title(language.English).String(strings.ToLower(trimmed)))
	if area.Valid() {
		return area, nil
	}

	msg := fmt.Sprintf("unknown priority area %q (want one of Rural, Urban, Suburban)", trimmed)
	if suggestion := suggestArea(trimmed); suggestion != "" {
		msg = fmt.Sprintf("unknown priority area %q (did you mean %q?)", trimmed, suggestion)
	}
	return "", &ValidationError{Field: "priority_area", Message: msg}
}

// suggestArea returns the known area within edit distance 2 of s, if any.
func suggestArea(s string) PriorityArea {
	lower := strings.ToLower(s)
	if lower == "" {
		return ""
	}
	best := PriorityArea("")
	bestDist := 3
	for _, known := range PriorityAreas {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(string(known)))
		if d < bestDist {
			best, bestDist = known, d
		}
	}
	return best
}

// Region is one candidate deployment region.
type Region struct {
	ID                string       `json:"id" yaml:"id"`
	Latitude          float64      `json:"latitude" yaml:"latitude"`
	Longitude         float64      `json:"longitude" yaml:"longitude"`
	TerrainDifficulty int          `json:"terrain_difficulty" yaml:"terrain_difficulty"`
	SignalStrengthDBM int          `json:"signal_strength_dbm" yaml:"signal_strength_dbm"`
	CostKUSD          int          `json:"cost_k_usd" yaml:"cost_k_usd"`
	PriorityArea      PriorityArea `json:"priority_area" yaml:"priority_area"`
	ClimateRisk       int          `json:"climate_risk" yaml:"climate_risk"`
	Description       string       `json:"description" yaml:"description"`

	// LocationName is nil unless annotation ran for this region.
	LocationName *string `json:"location_name,omitempty" yaml:"location_name,omitempty"`
}

// WithLocationName returns a copy of r carrying the given location name.
func (r Region) WithLocationName(name string) Region {
	r.LocationName = &name
	return r
}

// LocationOrNA returns the location name, or "N/A" when annotation did not run.
func (r Region) LocationOrNA() string {
	if r.LocationName == nil {
		return "N/A"
	}
	return *r.LocationName
}

// ScoredRegion is a Region with its composite score attached.
type ScoredRegion struct {
	Region
	CompositeScore float64 `json:"composite_score" yaml:"composite_score"`
}
