package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	proto "github.com/ystepanoff/nrflink/protocol"
)

const schema = `CREATE TABLE IF NOT EXISTS sensor_readings (
	id          BIGSERIAL PRIMARY KEY,
	sensor      TEXT             NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	received_at TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS sensor_readings_received_at_idx ON sensor_readings (received_at)`

// PostgresStore writes readings to the sensor_readings table.
type PostgresStore struct {
	pool *sql.DB
}

// NewPostgresStore opens a connection pool and checks it with a ping.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	pool.SetMaxOpenConns(5)
	pool.SetMaxIdleConns(2)
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the table and index if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, readings ...proto.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sensor_readings (sensor, value, received_at) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.ExecContext(ctx, r.Sensor, r.Value, r.ReceivedAt.UTC()); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", r.Sensor, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Since(ctx context.Context, t time.Time) ([]proto.Reading, error) {
	rows, err := s.pool.QueryContext(ctx,
		`SELECT sensor, value, received_at FROM sensor_readings WHERE received_at >= $1 ORDER BY received_at, id`,
		t.UTC())
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var out []proto.Reading
	for rows.Next() {
		var r proto.Reading
		if err := rows.Scan(&r.Sensor, &r.Value, &r.ReceivedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Average(ctx context.Context, t time.Time) (map[string]float64, error) {
	rows, err := s.pool.QueryContext(ctx,
		`SELECT sensor, AVG(value) FROM sensor_readings WHERE received_at >= $1 GROUP BY sensor`,
		t.UTC())
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			sensor string
			avg    float64
		)
		if err := rows.Scan(&sensor, &avg); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out[sensor] = avg
	}
	return out, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.pool.Close()
}
