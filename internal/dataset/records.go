package dataset

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/network-planner/internal/model"
)

type column int

const (
	colID column = iota
	colLatitude
	colLongitude
	colTerrain
	colSignal
	colCost
	colArea
	colClimate
	colDescription
)

// headerAliases maps normalized header text to a column. Both the snake_case
// export headers and the human-readable table headers are accepted. Location
// names are never read from a dataset; only annotation sets them.
var headerAliases = map[string]column{
	"id":                        colID,
	"region":                    colID,
	"latitude":                  colLatitude,
	"lat":                       colLatitude,
	"longitude":                 colLongitude,
	"lon":                       colLongitude,
	"lng":                       colLongitude,
	"terrain_difficulty":        colTerrain,
	"terrain difficulty (0-10)": colTerrain,
	"signal_strength_dbm":       colSignal,
	"signal strength (dbm)":     colSignal,
	"cost_k_usd":                colCost,
	"cost ($1000s)":             colCost,
	"priority_area":             colArea,
	"priority area":             colArea,
	"climate_risk":              colClimate,
	"climate risk (0-10)":       colClimate,
	"description":               colDescription,
}

var requiredColumns = []column{colID, colLatitude, colLongitude, colTerrain, colSignal, colCost, colArea, colClimate}

// headerIndex resolves column positions from a header row.
type headerIndex map[column]int

func parseHeader(header []string) (headerIndex, error) {
	idx := make(headerIndex)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if c, ok := headerAliases[key]; ok {
			if _, dup := idx[c]; !dup {
				idx[c] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, columnName(c))
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("dataset: missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

var canonicalNames = [...]string{
	colID:          "id",
	colLatitude:    "latitude",
	colLongitude:   "longitude",
	colTerrain:     "terrain_difficulty",
	colSignal:      "signal_strength_dbm",
	colCost:        "cost_k_usd",
	colArea:        "priority_area",
	colClimate:     "climate_risk",
	colDescription: "description",
}

func columnName(c column) string { return canonicalNames[c] }

func (h headerIndex) field(row []string, c column) string {
	i, ok := h[c]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseRow converts one data row into a Region. line is 1-based for messages.
func (h headerIndex) parseRow(row []string, line int) (model.Region, error) {
	var r model.Region
	var err error

	r.ID = h.field(row, colID)
	if r.ID == "" {
		return r, eris.Errorf("dataset: line %d: empty region id", line)
	}
	if r.Latitude, err = parseFloat(h.field(row, colLatitude)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d: latitude", line)
	}
	if r.Longitude, err = parseFloat(h.field(row, colLongitude)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d: longitude", line)
	}
	if r.TerrainDifficulty, err = parseInt(h.field(row, colTerrain)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d: terrain difficulty", line)
	}
	if r.SignalStrengthDBM, err = parseInt(h.field(row, colSignal)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d: signal strength", line)
	}
	if r.CostKUSD, err = parseInt(h.field(row, colCost)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d: cost", line)
	}
	if r.PriorityArea, err = model.ParsePriorityArea(h.field(row, colArea)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d", line)
	}
	if r.ClimateRisk, err = parseInt(h.field(row, colClimate)); err != nil {
		return r, eris.Wrapf(err, "dataset: line %d: climate risk", line)
	}
	r.Description = h.field(row, colDescription)
	return r, nil
}

// parseInt accepts integers written as floats ("3.0") since spreadsheet
// exports often coerce numeric columns.
func parseInt(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("not a number: %q", s)
	}
	if f != float64(int(f)) {
		return 0, eris.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("not a number: %q", s)
	}
	return f, nil
}

// Validate checks coordinate ranges and id uniqueness across a loaded table.
func Validate(regions []model.Region) error {
	seen := make(map[string]struct{}, len(regions))
	for i, r := range regions {
		if strings.TrimSpace(r.ID) == "" {
			return eris.Errorf("dataset: region %d: empty region id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return eris.Errorf("dataset: duplicate region id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.Latitude < -90 || r.Latitude > 90 {
			return eris.Errorf("dataset: region %q: latitude %v out of range", r.ID, r.Latitude)
		}
		if r.Longitude < -180 || r.Longitude > 180 {
			return eris.Errorf("dataset: region %q: longitude %v out of range", r.ID, r.Longitude)
		}
		if !r.PriorityArea.Valid() {
			return eris.Errorf("dataset: region %q: unknown priority area %q", r.ID, r.PriorityArea)
		}
	}
	return nil
}
