package postgres

import (
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"familyfitness/wod-server/internal/repository"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, errors.New("unsupported") }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: uniqueViolation}), repository.ErrDuplicate)

	other := &pq.Error{Code: "23503"}
	assert.Same(t, other, mapError(other))
}

func TestExpectOne(t *testing.T) {
	assert.NoError(t, expectOne(fakeResult(1), nil))
	assert.ErrorIs(t, expectOne(fakeResult(0), nil), repository.ErrNotFound)
	assert.ErrorIs(t, expectOne(nil, &pq.Error{Code: uniqueViolation}), repository.ErrDuplicate)
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.True(t, nullString("x").Valid)

	assert.False(t, nullTime(nil).Valid)
	local := time.Date(2026, 3, 14, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	nt := nullTime(&local)
	require.True(t, nt.Valid)
	assert.Equal(t, time.UTC, nt.Time.Location())
	assert.True(t, local.Equal(*timePtr(nt)))
	assert.Nil(t, timePtr(sql.NullTime{}))

	assert.False(t, nullDecimal(nil).Valid)
	w := decimal.RequireFromString("22.125")
	nd := nullDecimal(&w)
	require.True(t, nd.Valid)
	assert.True(t, w.Equal(nd.Decimal))
}

func TestMigrationsEmbedded(t *testing.T) {
	raw, err := fs.ReadFile(migrations, migrationsDir+"/00001_init.sql")
	require.NoError(t, err)

	sqlText := string(raw)
	assert.True(t, strings.HasPrefix(sqlText, "-- +goose Up"))
	assert.Contains(t, sqlText, "-- +goose Down")
	assert.Contains(t, sqlText, "UNIQUE (participant_id, round_number, station_index)")
	assert.Contains(t, sqlText, "UNIQUE (session_id, station_index)")
}
