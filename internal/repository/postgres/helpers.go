package postgres

import (
	"context"
	"strconv"
	"time"

	"bakery-backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgtype"
)

func numericToFloat64(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Float64Value()
	return f.Float64
}

func numericToFloat64Ptr(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f, _ := n.Float64Value()
	val := f.Float64
	return &val
}

func float64ToNumeric(f float64) pgtype.Numeric {
	var n pgtype.Numeric
	n.Scan(strconv.FormatFloat(f, 'f', -1, 64))
	return n
}

func float8ToPtr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	val := f.Float64
	return &val
}

func pgtimeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

// logQuery writes a debug line per query; failures are logged at warn.
func logQuery(ctx context.Context, name string, start time.Time, err error) {
	l := logger.WithContext(ctx)
	if err != nil {
		l.Warn().Err(err).Str("query", name).Dur("duration_ms", time.Since(start)).Msg("DB Query Failed")
		return
	}
	l.Debug().Str("query", name).Dur("duration_ms", time.Since(start)).Msg("DB Query")
}
