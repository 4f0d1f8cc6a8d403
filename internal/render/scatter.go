package render

import "github.com/sells-group/network-planner/internal/model"

// ScatterPoint is one marker on the signal-versus-cost chart.
type ScatterPoint struct {
	Region string  `json:"region"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Size   int     `json:"size"`
	Score  float64 `json:"composite_score"`
}

// ScatterChart plots signal strength against cost, sized by terrain
// difficulty and coloured by region.
type ScatterChart struct {
	Title  string         `json:"title"`
	XLabel string         `json:"x_label"`
	YLabel string         `json:"y_label"`
	Points []ScatterPoint `json:"points"`
}

// Scatter builds the chart for plan.
func Scatter(plan *model.Plan) ScatterChart {
	chart := ScatterChart{
		Title:  "Signal Strength vs. Cost",
		XLabel: "Cost in $1000s",
		YLabel: "Signal Strength in dBm",
		Points: make([]ScatterPoint, 0, len(plan.FilteredRegions)),
	}
	for _, r := range plan.FilteredRegions {
		chart.Points = append(chart.Points, ScatterPoint{
			Region: r.ID,
			X:      r.CostKUSD,
			Y:      r.SignalStrengthDBM,
			Size:   r.TerrainDifficulty,
			Score:  r.CompositeScore,
		})
	}
	return chart
}
