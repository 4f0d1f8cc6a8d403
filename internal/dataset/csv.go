package dataset

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/network-planner/internal/model"
)

// ParseCSV reads a header row followed by one region per row.
func ParseCSV(ctx context.Context, r io.Reader) ([]model.Region, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: csv is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: csv read header")
	}
	idx, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var regions []model.Region
	for line := 2; ; line++ {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: csv context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: csv read line %d", line)
		}
		if isBlank(record) {
			continue
		}
		region, err := idx.parseRow(record, line)
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

func isBlank(record []string) bool {
	for _, f := range record {
		if f != "" {
			return false
		}
	}
	return true
}
