package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// Store reads ensemble forecasts from and writes hedging decisions to a DuckDB
// database. Table names are trusted identifiers.
type Store struct {
	dataSourceName string
	forecastTable  string
	decisionTable  string
	db             *sql.DB
}

func NewStore(dataSourceName, forecastTable, decisionTable string) *Store {
	return &Store{
		dataSourceName: dataSourceName,
		forecastTable:  forecastTable,
		decisionTable:  decisionTable,
	}
}

func (s *Store) Connect() error {
	db, err := sql.Open("duckdb", s.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Forecast is the ensemble of one reservoir and day, members in ascending order.
type Forecast struct {
	Reservoir string
	Day       time.Time
	Members   []float64
}

// LoadEnsembles streams the forecasts of a reservoir with days in [from, to],
// calling handler once per day.
func (s *Store) LoadEnsembles(ctx context.Context, reservoir string, from, to time.Time, handler func(Forecast) error) error {
	query := fmt.Sprintf(`SELECT day, member, value FROM %s WHERE reservoir = ? AND day BETWEEN ? AND ? ORDER BY day, member`, s.forecastTable)

	rows, err := s.db.QueryContext(ctx, query, reservoir, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var current *Forecast
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := handler(*current); err != nil {
			return fmt.Errorf("error processing forecast of %s: %w", current.Day.Format(time.DateOnly), err)
		}
		return nil
	}

	for rows.Next() {
		var (
			day    time.Time
			member int
			value  float64
		)
		if err := rows.Scan(&day, &member, &value); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		day = day.UTC()

		if current == nil || !current.Day.Equal(day) {
			if err := flush(); err != nil {
				return err
			}
			current = &Forecast{Reservoir: reservoir, Day: day}
		}
		current.Members = append(current.Members, value)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return flush()
}

// Days lists the distinct forecast days of a reservoir within [from, to].
func (s *Store) Days(ctx context.Context, reservoir string, from, to time.Time) ([]time.Time, error) {
	query := fmt.Sprintf(`SELECT DISTINCT day FROM %s WHERE reservoir = ? AND day BETWEEN ? AND ? ORDER BY day`, s.forecastTable)

	rows, err := s.db.QueryContext(ctx, query, reservoir, from, to)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		days = append(days, day.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return days, nil
}
