package geocode

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTigerReverse_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+pprint_addy`).
		WithArgs(-80.19, 25.77).
		WillReturnRows(
			pgxmock.NewRows([]string{"pprint_addy", "location", "stateusps", "zip", "county_fips", "rating"}).
				AddRow(
					sql.NullString{String: "100 Main St, Miami, FL 33131", Valid: true},
					sql.NullString{String: "Miami", Valid: true},
					sql.NullString{String: "FL", Valid: true},
					sql.NullString{String: "33131", Valid: true},
					sql.NullString{String: "12086", Valid: true},
					3,
				),
		)

	result, err := NewTigerProvider(mock).Reverse(context.Background(), 25.77, -80.19)
	require.NoError(t, err)
	assert.Equal(t, &ReverseResult{
		Address:    "100 Main St, Miami, FL 33131",
		City:       "Miami",
		State:      "FL",
		PostalCode: "33131",
		Country:    "US",
		CountyFIPS: "12086",
		Rating:     3,
		Source:     "tiger",
	}, result)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverse_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+pprint_addy`).
		WithArgs(-100.0, 40.0).
		WillReturnRows(pgxmock.NewRows([]string{"pprint_addy", "location", "stateusps", "zip", "county_fips", "rating"}))

	_, err = NewTigerProvider(mock).Reverse(context.Background(), 40.0, -100.0)
	assert.ErrorIs(t, err, ErrNoResult)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverse_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+pprint_addy`).
		WithArgs(-100.0, 40.0).
		WillReturnError(assert.AnError)

	result, err := NewTigerProvider(mock).Reverse(context.Background(), 40.0, -100.0)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.NotErrorIs(t, err, ErrNoResult)
	assert.Contains(t, err.Error(), "tiger reverse geocode")
}

func TestTigerReverse_InvalidCoordinates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewTigerProvider(mock).Reverse(context.Background(), 91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	require.NoError(t, mock.ExpectationsWereMet())
}
