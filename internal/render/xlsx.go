package render

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/network-planner/internal/model"
)

// SheetName is the worksheet written by XLSX.
const SheetName = "Filtered Regions"

// XLSX writes the filtered-region table as a workbook. Numeric columns are
// stored as numbers.
func XLSX(w io.Writer, plan *model.Plan) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "render: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns(plan.LocationNamesIncluded) {
		header.AddCell().SetString(c)
	}

	for _, r := range plan.FilteredRegions {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		if plan.LocationNamesIncluded {
			row.AddCell().SetString(r.LocationOrNA())
		}
		row.AddCell().SetString(string(r.PriorityArea))
		row.AddCell().SetInt(r.SignalStrengthDBM)
		row.AddCell().SetInt(r.CostKUSD)
		row.AddCell().SetInt(r.TerrainDifficulty)
		row.AddCell().SetInt(r.ClimateRisk)
		row.AddCell().SetString(r.Description)
		row.AddCell().SetFloat(r.CompositeScore)
	}

	return eris.Wrap(f.Write(w), "render: write xlsx")
}
