package store

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/config"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// Store persists collection runs and merged frames in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// connString renders cfg as a connection URL. The url package escapes odd
// password characters on its own.
func connString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// Connect creates a connection pool and verifies it.
func Connect(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS collection_runs (
	id           UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	window_start TIMESTAMPTZ NOT NULL,
	window_end   TIMESTAMPTZ NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	rows         INTEGER NOT NULL,
	error        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS observations (
	run_id UUID NOT NULL REFERENCES collection_runs(id),
	ts     TIMESTAMPTZ NOT NULL,
	name   TEXT NOT NULL,
	value  DOUBLE PRECISION,
	PRIMARY KEY (run_id, ts, name)
);

CREATE INDEX IF NOT EXISTS observations_ts_idx ON observations (ts);
`

// EnsureSchema creates the tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun records one collection run.
func (s *Store) SaveRun(ctx context.Context, run model.CollectionRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collection_runs
			(id, source, window_start, window_end, started_at, completed_at, rows, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Source, run.WindowStart, run.WindowEnd,
		run.StartedAt, run.CompletedAt, run.Rows, run.Error,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveFrame stores a frame in long format (run_id, ts, name, value) using the
// binary copy protocol. NaN cells become NULL values.
func (s *Store) SaveFrame(ctx context.Context, run model.CollectionRun, f *timeseries.Frame) (int64, error) {
	cols := f.Columns()
	times := f.Times()

	rows := make([][]interface{}, 0, len(times)*len(cols))
	for i, ts := range times {
		for _, name := range cols {
			var value interface{}
			if v := f.Value(i, name); !math.IsNaN(v) {
				value = v
			}
			rows = append(rows, []interface{}{run.ID, ts, name, value})
		}
	}

	copied, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"observations"},
		[]string{"run_id", "ts", "name", "value"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy frame for run %s: %w", run.ID, err)
	}
	return copied, nil
}

// LatestRun returns the most recent run for a source, or nil when none exists.
func (s *Store) LatestRun(ctx context.Context, source string) (*model.CollectionRun, error) {
	var run model.CollectionRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, window_start, window_end, started_at, completed_at, rows, error
		FROM collection_runs
		WHERE source = $1
		ORDER BY started_at DESC
		LIMIT 1`, source,
	).Scan(&run.ID, &run.Source, &run.WindowStart, &run.WindowEnd,
		&run.StartedAt, &run.CompletedAt, &run.Rows, &run.Error)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run for %s: %w", source, err)
	}
	return &run, nil
}
