// Package database implements TimescaleDB-backed storage for projected
// telegram data.
//
// Two tables are used:
//   - phase_readings(time, quantity, phase, value): per-phase voltage and
//     current samples, one row per (telegram, quantity, phase)
//   - event_messages(time, severity, message): decoded event-log messages
//
// phase_readings is a hypertable, so windowed aggregation queries go
// through time_bucket().
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/gridpulse/dsmrflow/internal/models"
)

// TelegramRepository defines the storage operations for projected telegram
// data.
//
// Supported aggregations: MIN, MAX, AVG, SUM.
// Supported time windows: 1m, 5m, 1h, 1d.
type TelegramRepository interface {
	// InsertPhaseReadings stores per-phase vectors of one quantity
	// ("voltage" or "current"), three rows per vector, in one transaction.
	InsertPhaseReadings(ctx context.Context, quantity string, points []models.PhaseVector) error

	// InsertEventMessages stores decoded event-log messages.
	InsertEventMessages(ctx context.Context, messages []models.EventMessage) error

	// QuerySeries returns aggregated buckets for one quantity and phase
	// within [start, end).
	QuerySeries(ctx context.Context, quantity string, phase int, start, end time.Time, window, aggregation string) ([]models.SeriesPoint, error)

	// Close releases the underlying connection pool.
	Close() error
}

// PostgresRepo implements TelegramRepository on TimescaleDB.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo opens a connection pool and verifies connectivity.
// The connection string uses the lib/pq keyword form, e.g.
// "host=localhost port=5432 user=dsmr dbname=dsmr sslmode=disable".
func NewPostgresRepo(connStr string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresRepo{db: db}, nil
}

func (s *PostgresRepo) InsertPhaseReadings(ctx context.Context, quantity string, points []models.PhaseVector) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO phase_readings (time, quantity, phase, value)
        VALUES ($1, $2, $3, $4)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		for phase, value := range []float64{p.Phase1, p.Phase2, p.Phase3} {
			if _, err := stmt.ExecContext(ctx, p.Time, quantity, phase+1, value); err != nil {
				return fmt.Errorf("failed to insert phase reading: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresRepo) InsertEventMessages(ctx context.Context, messages []models.EventMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO event_messages (time, severity, message)
        VALUES ($1, $2, $3)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.ExecContext(ctx, m.Time, m.Severity, m.Message); err != nil {
			return fmt.Errorf("failed to insert event message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// QuerySeries aggregates one quantity/phase series into time buckets.
//
// Uses time_bucket() from TimescaleDB for time-based grouping; the
// aggregation function is selected via a CASE statement so the query text
// stays constant per window.
func (s *PostgresRepo) QuerySeries(
	ctx context.Context,
	quantity string,
	phase int,
	start, end time.Time,
	window string,
	aggregation string,
) ([]models.SeriesPoint, error) {
	if err := validateSeriesArgs(quantity, phase, window, aggregation); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
        SELECT
            time_bucket('%s', time) as bucket_time,
            CASE
                WHEN $5 = 'MIN' THEN MIN(value)
                WHEN $5 = 'MAX' THEN MAX(value)
                WHEN $5 = 'AVG' THEN AVG(value)
                WHEN $5 = 'SUM' THEN SUM(value)
            END as agg_value
        FROM phase_readings
        WHERE quantity = $1 AND phase = $2 AND time >= $3 AND time < $4
        GROUP BY bucket_time
        ORDER BY bucket_time
    `, windowInterval(window))

	rows, err := s.db.QueryContext(ctx, query, quantity, phase, start, end, aggregation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.SeriesPoint
	for rows.Next() {
		var r models.SeriesPoint
		if err := rows.Scan(&r.Time, &r.Value); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close releases all database resources.
func (s *PostgresRepo) Close() error {
	return s.db.Close()
}

func validateQuantity(quantity string) error {
	if quantity != models.QuantityVoltage && quantity != models.QuantityCurrent {
		return fmt.Errorf("invalid quantity: %s", quantity)
	}
	return nil
}

func validateSeriesArgs(quantity string, phase int, window, aggregation string) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if phase < 1 || phase > 3 {
		return fmt.Errorf("invalid phase: %d", phase)
	}
	if windowInterval(window) == "" {
		return fmt.Errorf("invalid window: %s", window)
	}
	switch aggregation {
	case "MIN", "MAX", "AVG", "SUM":
		return nil
	default:
		return fmt.Errorf("invalid aggregation type: %s", aggregation)
	}
}

// windowInterval maps the API window names to Postgres interval literals,
// and doubles as the whitelist keeping window out of SQL injection reach.
func windowInterval(window string) string {
	switch window {
	case "1m":
		return "1 minute"
	case "5m":
		return "5 minutes"
	case "1h":
		return "1 hour"
	case "1d":
		return "1 day"
	default:
		return ""
	}
}

// Compile-time interface implementation check
var _ TelegramRepository = (*PostgresRepo)(nil)
