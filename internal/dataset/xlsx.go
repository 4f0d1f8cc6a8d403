package dataset

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/network-planner/internal/model"
)

// ParseXLSX reads regions from a workbook. The first row of the sheet is the
// header. An empty sheetName selects the first sheet.
func ParseXLSX(ctx context.Context, f *xlsx.File, sheetName string) ([]model.Region, error) {
	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("dataset: xlsx sheet %q is empty", sheet.Name)
	}

	idx, err := parseHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var regions []model.Region
	for i, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: xlsx context cancelled")
		}
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		region, err := idx.parseRow(cells, i+2)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}

	if err := Validate(regions); err != nil {
		return nil, err
	}
	return regions, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("dataset: xlsx sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
