// Package render projects a plan into tables, documents, maps and charts.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/network-planner/internal/model"
)

// Column headers, in display order.
const (
	ColRegion       = "Region"
	ColLocationName = "Location Name"
	ColPriorityArea = "Priority Area"
	ColSignal       = "Signal Strength (dBm)"
	ColCost         = "Cost ($1000s)"
	ColTerrain      = "Terrain Difficulty (0-10)"
	ColClimate      = "Climate Risk (0-10)"
	ColDescription  = "Description"
	ColScore        = "Composite Score"
)

// Columns returns the filtered-region table headers. Location Name appears
// only when names were requested.
func Columns(includeNames bool) []string {
	cols := []string{ColRegion}
	if includeNames {
		cols = append(cols, ColLocationName)
	}
	return append(cols, ColPriorityArea, ColSignal, ColCost, ColTerrain, ColClimate, ColDescription, ColScore)
}

// Rows returns one string row per filtered region matching Columns.
// scoreDigits is the number of decimals for the score, or -1 for full precision.
func Rows(plan *model.Plan, scoreDigits int) [][]string {
	rows := make([][]string, 0, len(plan.FilteredRegions))
	for _, r := range plan.FilteredRegions {
		row := []string{r.ID}
		if plan.LocationNamesIncluded {
			row = append(row, r.LocationOrNA())
		}
		row = append(row,
			string(r.PriorityArea),
			strconv.Itoa(r.SignalStrengthDBM),
			strconv.Itoa(r.CostKUSD),
			strconv.Itoa(r.TerrainDifficulty),
			strconv.Itoa(r.ClimateRisk),
			r.Description,
			strconv.FormatFloat(r.CompositeScore, 'f', scoreDigits, 64),
		)
		rows = append(rows, row)
	}
	return rows
}

// Table writes the filtered regions as an aligned text table followed by the
// recommendation.
func Table(w io.Writer, plan *model.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(Columns(plan.LocationNamesIncluded), "\t"))
	for _, row := range Rows(plan, 2) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "render: flush table")
	}

	if len(plan.FilteredRegions) == 0 {
		fmt.Fprintln(w, "No regions match the selected criteria.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.ReplaceAll(plan.Recommendation.Markdown(), "  \n", "\n"))
	return nil
}

// CSV writes the filtered regions with a header row. Scores keep full precision.
func CSV(w io.Writer, plan *model.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(plan.LocationNamesIncluded)); err != nil {
		return eris.Wrap(err, "render: write csv header")
	}
	if err := cw.WriteAll(Rows(plan, -1)); err != nil {
		return eris.Wrap(err, "render: write csv rows")
	}
	return nil
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "render: encode json")
}

// Markdown writes the recommendation block.
func Markdown(w io.Writer, plan *model.Plan) error {
	_, err := fmt.Fprintln(w, plan.Recommendation.Markdown())
	return eris.Wrap(err, "render: write markdown")
}

// RegionTable writes an unscored region list, as produced by a dataset source.
func RegionTable(w io.Writer, regions []model.Region) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Region\tLatitude\tLongitude\tPriority Area\tSignal Strength (dBm)\tCost ($1000s)\tTerrain Difficulty (0-10)\tClimate Risk (0-10)\tDescription")
	for _, r := range regions {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Latitude, r.Longitude, r.PriorityArea,
			r.SignalStrengthDBM, r.CostKUSD, r.TerrainDifficulty, r.ClimateRisk, r.Description)
	}
	return eris.Wrap(tw.Flush(), "render: flush region table")
}

// RegionCSV writes an unscored region list using snake_case headers that
// dataset.ParseCSV reads back.
func RegionCSV(w io.Writer, regions []model.Region) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "latitude", "longitude", "terrain_difficulty", "signal_strength_dbm", "cost_k_usd", "priority_area", "climate_risk", "description"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "render: write csv header")
	}
	for _, r := range regions {
		err := cw.Write([]string{
			r.ID,
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			strconv.Itoa(r.TerrainDifficulty),
			strconv.Itoa(r.SignalStrengthDBM),
			strconv.Itoa(r.CostKUSD),
			string(r.PriorityArea),
			strconv.Itoa(r.ClimateRisk),
			r.Description,
		})
		if err != nil {
			return eris.Wrap(err, "render: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "render: flush csv")
}
