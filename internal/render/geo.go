package render

import (
	"fmt"
	"html"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/network-planner/internal/model"
)

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 6

// MapView is a map of the filtered regions centred on their mean position.
type MapView struct {
	// Center is [latitude, longitude]; nil when no region passed the filter.
	Center  *[2]float64                `json:"center,omitempty"`
	Zoom    int                        `json:"zoom"`
	Regions *geojson.FeatureCollection `json:"regions"`
}

// Map builds the map view for plan.
func Map(plan *model.Plan) *MapView {
	view := &MapView{Zoom: DefaultZoom, Regions: FeatureCollection(plan)}
	if n := len(plan.FilteredRegions); n > 0 {
		var lat, lon float64
		for _, r := range plan.FilteredRegions {
			lat += r.Latitude
			lon += r.Longitude
		}
		view.Center = &[2]float64{lat / float64(n), lon / float64(n)}
	}
	return view
}

// FeatureCollection returns one Point feature per filtered region with every
// region field as a property plus an HTML popup.
func FeatureCollection(plan *model.Plan) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(plan.FilteredRegions))}
	if len(plan.FilteredRegions) == 0 {
		return fc
	}

	bounds := geom.NewBounds(geom.XY)
	for _, r := range plan.FilteredRegions {
		pt := geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude})
		bounds.Extend(pt)

		props := map[string]any{
			"id":                  r.ID,
			"latitude":            r.Latitude,
			"longitude":           r.Longitude,
			"terrain_difficulty":  r.TerrainDifficulty,
			"signal_strength_dbm": r.SignalStrengthDBM,
			"cost_k_usd":          r.CostKUSD,
			"priority_area":       string(r.PriorityArea),
			"climate_risk":        r.ClimateRisk,
			"description":         r.Description,
			"composite_score":     r.CompositeScore,
			"popup":               Popup(r.Region),
		}
		if r.LocationName != nil {
			props["location_name"] = *r.LocationName
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   pt,
			Properties: props,
		})
	}
	fc.BBox = bounds
	return fc
}

// Popup returns the HTML marker popup for a region.
func Popup(r model.Region) string {
	return fmt.Sprintf("<b>Region:</b> %s<br>"+
		"<b>Location:</b> %s<br>"+
		"<b>Description:</b> %s<br>"+
		"<b>Signal Strength:</b> %d dBm<br>"+
		"<b>Cost:</b> $%dk<br>"+
		"<b>Terrain Difficulty:</b> %d<br>"+
		"<b>Climate Risk:</b> %d",
		html.EscapeString(r.ID),
		html.EscapeString(r.LocationOrNA()),
		html.EscapeString(r.Description),
		r.SignalStrengthDBM,
		r.CostKUSD,
		r.TerrainDifficulty,
		r.ClimateRisk,
	)
}
