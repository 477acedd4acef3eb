package duckdb

import (
	"context"
	"fmt"

	"github.com/peter-kozarec/hedgeflow/pkg/report"
)

// EnsureSchema creates both tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			reservoir VARCHAR NOT NULL,
			day DATE NOT NULL,
			member INTEGER NOT NULL,
			value DOUBLE NOT NULL,
			PRIMARY KEY (reservoir, day, member)
		)`, s.forecastTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			reservoir VARCHAR NOT NULL,
			day DATE NOT NULL,
			regime VARCHAR NOT NULL,
			expected DECIMAL(18, 6) NOT NULL,
			delta_min DECIMAL(18, 6) NOT NULL,
			q995 DECIMAL(18, 6) NOT NULL,
			hold_back DECIMAL(18, 6) NOT NULL,
			delta DECIMAL(18, 6) NOT NULL,
			degraded BOOLEAN NOT NULL,
			degenerate_fit BOOLEAN NOT NULL
		)`, s.decisionTable),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

// StoreDecision upserts a decision record keyed by its id.
func (s *Store) StoreDecision(ctx context.Context, r report.Record) error {
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s
		(id, run_id, reservoir, day, regime, expected, delta_min, q995, hold_back, delta, degraded, degenerate_fit)
		VALUES (CAST(? AS UUID), CAST(? AS UUID), ?, ?, ?, CAST(? AS DECIMAL(18, 6)), CAST(? AS DECIMAL(18, 6)), CAST(? AS DECIMAL(18, 6)), CAST(? AS DECIMAL(18, 6)), CAST(? AS DECIMAL(18, 6)), ?, ?)`,
		s.decisionTable)

	_, err := s.db.ExecContext(ctx, query,
		r.ID.String(), r.RunID.String(), r.Reservoir, r.Day, r.Regime.String(),
		r.Expected, r.DeltaMin, r.Q995, r.HoldBack, r.Delta,
		r.Degraded, r.DegenerateFit)
	if err != nil {
		return fmt.Errorf("error storing decision %s: %w", r.ID, err)
	}
	return nil
}

// StoreForecast inserts the members of one forecast day.
func (s *Store) StoreForecast(ctx context.Context, f Forecast) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (reservoir, day, member, value) VALUES (?, ?, ?, ?)`, s.forecastTable)
	for i, v := range f.Members {
		if _, err := tx.ExecContext(ctx, query, f.Reservoir, f.Day, i, v); err != nil {
			return fmt.Errorf("error storing member %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// DecisionCount returns the number of stored decisions of a reservoir.
func (s *Store) DecisionCount(ctx context.Context, reservoir string) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE reservoir = ?`, s.decisionTable)

	var n int
	if err := s.db.QueryRowContext(ctx, query, reservoir).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting decisions: %w", err)
	}
	return n, nil
}
