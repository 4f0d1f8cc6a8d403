package geocode

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReverseResult holds the result of a reverse geocode operation.
type ReverseResult struct {
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	CountyFIPS string `json:"county_fips,omitempty"`
	Rating     int    `json:"rating,omitempty"`
	Source     string `json:"source"`
}

// Querier is the subset of a pgx pool used by the TIGER provider.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TigerProvider reverse geocodes against a PostGIS database loaded with the
// TIGER geocoder extension.
type TigerProvider struct {
	db Querier
}

// NewTigerProvider creates a TIGER provider backed by q.
func NewTigerProvider(q Querier) *TigerProvider {
	return &TigerProvider{db: q}
}

// Name implements Provider.
func (p *TigerProvider) Name() string { return "tiger" }

// Reverse converts a lat/lng to a street address using PostGIS TIGER data.
func (p *TigerProvider) Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	var fullAddr, city, state, zip, countyFIPS sql.NullString
	var rating int

	err := p.db.QueryRow(ctx, `
		SELECT
			pprint_addy(addy),
			(addy).location,
			(addy).stateusps,
			(addy).zip,
			(addy).statefp || (addy).countyfp,
			rating
		FROM reverse_geocode(ST_SetSRID(ST_MakePoint($1, $2), 4326), 1)`,
		lng, lat,
	).Scan(&fullAddr, &city, &state, &zip, &countyFIPS, &rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoResult
	}
	if err != nil {
		zap.L().Debug("reverse geocode: tiger query failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return nil, eris.Wrap(err, "geocode: tiger reverse geocode")
	}
	if !fullAddr.Valid || fullAddr.String == "" {
		return nil, ErrNoResult
	}

	return &ReverseResult{
		Address:    fullAddr.String,
		City:       city.String,
		State:      state.String,
		PostalCode: zip.String,
		Country:    "US",
		CountyFIPS: countyFIPS.String,
		Rating:     rating,
		Source:     p.Name(),
	}, nil
}
