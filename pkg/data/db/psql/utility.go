package psql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/peter-kozarec/hedgeflow/pkg/report"
)

// Connect opens a PostgreSQL connection pool from a libpq connection string and
// verifies it is reachable.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	dbConn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return dbConn, nil
}

func EnsureDecisionTable(ctx context.Context, db *sql.DB, table string) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		run_id UUID NOT NULL,
		reservoir TEXT NOT NULL,
		day DATE NOT NULL,
		regime TEXT NOT NULL,
		expected NUMERIC NOT NULL,
		delta_min NUMERIC NOT NULL,
		q995 NUMERIC NOT NULL,
		hold_back NUMERIC NOT NULL,
		delta NUMERIC NOT NULL,
		degraded BOOLEAN NOT NULL,
		degenerate_fit BOOLEAN NOT NULL
	)`, table)

	_, err := db.ExecContext(ctx, query)
	return err
}

// InsertDecision mirrors a decision record. A record already mirrored by the
// same run is left untouched.
func InsertDecision(ctx context.Context, db *sql.DB, table string, r report.Record) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (
		id,
		run_id,
		reservoir,
		day,
		regime,
		expected,
		delta_min,
		q995,
		hold_back,
		delta,
		degraded,
		degenerate_fit
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING;
	`, table)

	_, err := db.ExecContext(
		ctx,
		query,
		r.ID.String(),
		r.RunID.String(),
		r.Reservoir,
		r.Day,
		r.Regime.String(),
		r.Expected,
		r.DeltaMin,
		r.Q995,
		r.HoldBack,
		r.Delta,
		r.Degraded,
		r.DegenerateFit,
	)

	return err
}
