package dataset

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/network-planner/internal/model"
)

// jsonRegion mirrors model.Region with pointer fields so absent keys can be
// told apart from zero values. location_name is not decoded.
type jsonRegion struct {
	ID                *string  `json:"id"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	TerrainDifficulty *int     `json:"terrain_difficulty"`
	SignalStrengthDBM *int     `json:"signal_strength_dbm"`
	CostKUSD          *int     `json:"cost_k_usd"`
	PriorityArea      *string  `json:"priority_area"`
	ClimateRisk       *int     `json:"climate_risk"`
	Description       string   `json:"description"`
}

func (j jsonRegion) missing() []string {
	var out []string
	check := func(absent bool, c column) {
		if absent {
			out = append(out, columnName(c))
		}
	}
	check(j.ID == nil, colID)
	check(j.Latitude == nil, colLatitude)
	check(j.Longitude == nil, colLongitude)
	check(j.TerrainDifficulty == nil, colTerrain)
	check(j.SignalStrengthDBM == nil, colSignal)
	check(j.CostKUSD == nil, colCost)
	check(j.PriorityArea == nil, colArea)
	check(j.ClimateRisk == nil, colClimate)
	return out
}

func (j jsonRegion) region(n int) (model.Region, error) {
	if missing := j.missing(); len(missing) > 0 {
		return model.Region{}, eris.Errorf("dataset: json element %d: missing required columns: %s", n, strings.Join(missing, ", "))
	}
	area, err := model.ParsePriorityArea(*j.PriorityArea)
	if err != nil {
		return model.Region{}, eris.Wrapf(err, "dataset: json element %d", n)
	}
	return model.Region{
		ID:                strings.TrimSpace(*j.ID),
		Latitude:          *j.Latitude,
		Longitude:         *j.Longitude,
		TerrainDifficulty: *j.TerrainDifficulty,
		SignalStrengthDBM: *j.SignalStrengthDBM,
		CostKUSD:          *j.CostKUSD,
		PriorityArea:      area,
		ClimateRisk:       *j.ClimateRisk,
		Description:       j.Description,
	}, nil
}

// ParseJSON decodes a JSON array of regions, element by element.
func ParseJSON(ctx context.Context, r io.Reader) ([]model.Region, error) {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil, eris.New("dataset: json is empty")
		}
		return nil, eris.Wrap(err, "dataset: json read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, eris.Errorf("dataset: json expected '[', got %v", tok)
	}

	var regions []model.Region
	for decoder.More() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: json context cancelled")
		}
		var raw jsonRegion
		if err := decoder.Decode(&raw); err != nil {
			return nil, eris.Wrapf(err, "dataset: json decode element %d", len(regions))
		}
		region, err := raw.region(len(regions))
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "dataset: json read closing token")
	}

	if err := Validate(regions); err != nil {
		return nil, err
	}
	return regions, nil
}
