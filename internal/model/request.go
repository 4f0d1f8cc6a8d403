package model

import (
	"fmt"
	"math"
)

// Signal bounds accepted by a plan request, in dBm.
const (
	MinSignalDBM = -120
	MaxSignalDBM = -30
)

// ValidationError reports a malformed plan request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Weights are the composite-score coefficients. Any finite real value is
// accepted; UIs conventionally restrict them to [0,1].
type Weights struct {
	Terrain     float64 `json:"terrain_weight" yaml:"terrain_weight" mapstructure:"terrain_weight"`
	Cost        float64 `json:"cost_weight" yaml:"cost_weight" mapstructure:"cost_weight"`
	ClimateRisk float64 `json:"climate_risk_weight" yaml:"climate_risk_weight" mapstructure:"climate_risk_weight"`
}

// PlanRequest is the immutable input to a single planning pass.
type PlanRequest struct {
	Seed                 int64        `json:"seed" yaml:"seed"`
	BudgetMaxKUSD        int          `json:"budget_max_k_usd" yaml:"budget_max_k_usd"`
	PriorityArea         PriorityArea `json:"priority_area" yaml:"priority_area"`
	SignalMinDBM         int          `json:"signal_min_dbm" yaml:"signal_min_dbm"`
	Weights              `yaml:",inline"`
	IncludeLocationNames bool `json:"include_location_names" yaml:"include_location_names"`
}

// DefaultPlanRequest mirrors the initial state of the planning form.
func DefaultPlanRequest() PlanRequest {
	return PlanRequest{
		Seed:                 42,
		BudgetMaxKUSD:        10,
		PriorityArea:         AreaRural,
		SignalMinDBM:         -80,
		Weights:              Weights{Terrain: 0.5, Cost: 0.5, ClimateRisk: 0.5},
		IncludeLocationNames: true,
	}
}

// Normalize returns a copy of the request with the priority area canonicalized.
// The error is a *ValidationError when the area is unknown.
func (r PlanRequest) Normalize() (PlanRequest, error) {
	area, err := ParsePriorityArea(string(r.PriorityArea))
	if err != nil {
		return r, err
	}
	r.PriorityArea = area
	return r, nil
}

// Validate checks the request shape. It does not enforce weight ranges.
func (r PlanRequest) Validate() error {
	if r.BudgetMaxKUSD <= 0 {
		return &ValidationError{Field: "budget_max_k_usd", Message: fmt.Sprintf("must be > 0, got %d", r.BudgetMaxKUSD)}
	}
	if r.SignalMinDBM < MinSignalDBM || r.SignalMinDBM > MaxSignalDBM {
		return &ValidationError{
			Field:   "signal_min_dbm",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinSignalDBM, MaxSignalDBM, r.SignalMinDBM),
		}
	}
	if !r.PriorityArea.Valid() {
		_, err := ParsePriorityArea(string(r.PriorityArea))
		return err
	}
	for name, w := range map[string]float64{
		"terrain_weight":      r.Terrain,
		"cost_weight":         r.Cost,
		"climate_risk_weight": r.ClimateRisk,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return &ValidationError{Field: name, Message: "must be a finite number"}
		}
	}
	return nil
}
