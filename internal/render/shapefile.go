package render

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/network-planner/internal/model"
)

// DBF field names are limited to 10 characters.
var shapeFields = []shp.Field{
	shp.StringField("REGION", 32),
	shp.StringField("LOCATION", 254),
	shp.StringField("AREA", 10),
	shp.NumberField("SIGNAL", 6),
	shp.NumberField("COST", 6),
	shp.NumberField("TERRAIN", 4),
	shp.NumberField("CLIMATE", 4),
	shp.StringField("DESCR", 254),
	shp.FloatField("SCORE", 14, 4),
}

// Shapefile writes the filtered regions as a point shapefile. path names the
// .shp file; the .shx and .dbf siblings are written next to it.
func Shapefile(path string, plan *model.Plan) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "render: create shapefile %s", path)
	}
	defer w.Close()

	if err := w.SetFields(shapeFields); err != nil {
		return eris.Wrap(err, "render: set shapefile fields")
	}

	for _, r := range plan.FilteredRegions {
		idx := int(w.Write(&shp.Point{X: r.Longitude, Y: r.Latitude}))
		values := []any{
			r.ID,
			r.LocationOrNA(),
			string(r.PriorityArea),
			r.SignalStrengthDBM,
			r.CostKUSD,
			r.TerrainDifficulty,
			r.ClimateRisk,
			r.Description,
			r.CompositeScore,
		}
		for field, v := range values {
			if err := w.WriteAttribute(idx, field, v); err != nil {
				return eris.Wrapf(err, "render: write %s attribute %d", r.ID, field)
			}
		}
	}
	return nil
}
