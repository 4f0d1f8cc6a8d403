package planner

import "github.com/sells-group/network-planner/internal/model"

// Filter keeps regions that meet every constraint, preserving input order.
// A region passes iff its signal is at least signalMin, its cost is at most
// budgetMax, and its priority area equals area. Both bounds are inclusive.
func Filter(regions []model.Region, budgetMax, signalMin int, area model.PriorityArea) []model.Region {
	out := make([]model.Region, 0, len(regions))
	for _, r := range regions {
		if Passes(r, budgetMax, signalMin, area) {
			out = append(out, r)
		}
	}
	return out
}

// Passes reports whether a single region satisfies the filter constraints.
func Passes(r model.Region, budgetMax, signalMin int, area model.PriorityArea) bool {
	return r.SignalStrengthDBM >= signalMin &&
		r.CostKUSD <= budgetMax &&
		r.PriorityArea == area
}
