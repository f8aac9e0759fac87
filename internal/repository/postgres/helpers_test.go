package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericConversions(t *testing.T) {
	n := float64ToNumeric(12.75)
	require.True(t, n.Valid)
	assert.InDelta(t, 12.75, numericToFloat64(n), 1e-9)

	ptr := numericToFloat64Ptr(n)
	require.NotNil(t, ptr)
	assert.InDelta(t, 12.75, *ptr, 1e-9)

	assert.Equal(t, 0.0, numericToFloat64(pgtype.Numeric{}))
	assert.Nil(t, numericToFloat64Ptr(pgtype.Numeric{}))
}

func TestNumericZeroIsNotNull(t *testing.T) {
	ptr := numericToFloat64Ptr(float64ToNumeric(0))
	require.NotNil(t, ptr)
	assert.Equal(t, 0.0, *ptr)
}

func TestFloat8ToPtr(t *testing.T) {
	assert.Nil(t, float8ToPtr(pgtype.Float8{}))

	ptr := float8ToPtr(pgtype.Float8{Float64: 31.9539, Valid: true})
	require.NotNil(t, ptr)
	assert.Equal(t, 31.9539, *ptr)
}

func TestPgtimeToTime(t *testing.T) {
	assert.True(t, pgtimeToTime(pgtype.Timestamptz{}).IsZero())

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now, pgtimeToTime(pgtype.Timestamptz{Time: now, Valid: true}))
}
