// Package store persists finished simulation runs so they can be listed and
// compared later. It speaks database/sql against either an embedded SQLite
// file or a PostgreSQL server, chosen by the DSN.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/haulsim/haulsim/sim"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// ErrNotFound is returned when a run id is not in the store.
var ErrNotFound = errors.New("run not found")

// Store is a run-history repository. Queries use $n placeholders, which
// both PostgreSQL and SQLite accept.
type Store struct {
	db     *sql.DB
	driver string
}

// DriverFor picks the driver for a DSN: postgres:// and postgresql:// URLs
// use pgx, anything else is a SQLite file path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to dsn, verifies the connection and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("open store: empty DSN")
	}
	driver := DriverFor(dsn)
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open store: create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: open %s database: %w", driver, err)
	}
	if driver == DriverPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: verify %s connection: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Driver returns the database/sql driver in use.
func (s *Store) Driver() string { return s.driver }

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			trucks INTEGER NOT NULL,
			unload_stations INTEGER NOT NULL,
			seed BIGINT NOT NULL,
			assignment TEXT NOT NULL,
			horizon_ticks BIGINT NOT NULL,
			run_ticks BIGINT NOT NULL,
			stopped INTEGER NOT NULL,
			total_deliveries INTEGER NOT NULL,
			average_delivery_ticks DOUBLE PRECISION NOT NULL,
			config_json TEXT NOT NULL,
			summary_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS truck_results (
			run_id TEXT NOT NULL,
			truck_id TEXT NOT NULL,
			deliveries INTEGER NOT NULL,
			total_wait_ticks BIGINT NOT NULL,
			PRIMARY KEY (run_id, truck_id),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

// Run is one persisted simulation run.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Config    sim.Config
	Stopped   bool // halted before the horizon
	Summary   *sim.Summary
}

// SaveRun stores the run and its per-truck results in one transaction.
// A zero ID is replaced with a fresh random one, which is returned.
func (s *Store) SaveRun(ctx context.Context, r Run) (uuid.UUID, error) {
	if r.Summary == nil {
		return uuid.Nil, errors.New("save run: nil summary")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cfgJSON, err := json.Marshal(r.Config)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save run: marshal config: %w", err)
	}
	sumJSON, err := json.Marshal(r.Summary)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save run: marshal summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save run: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		run_id, started_at, trucks, unload_stations, seed, assignment,
		horizon_ticks, run_ticks, stopped, total_deliveries, average_delivery_ticks,
		config_json, summary_json
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID.String(), r.StartedAt.UTC().Format(time.RFC3339Nano), r.Config.Trucks, r.Config.UnloadStations,
		r.Config.Seed, r.Config.Assignment, r.Summary.HorizonTicks, r.Summary.RunTicks, boolInt(r.Stopped),
		r.Summary.TotalDeliveries, r.Summary.AverageDeliveryTicks, string(cfgJSON), string(sumJSON))
	if err != nil {
		return uuid.Nil, fmt.Errorf("save run %s: %w", r.ID, err)
	}

	const insertTruck = `INSERT INTO truck_results (run_id, truck_id, deliveries, total_wait_ticks) VALUES ($1, $2, $3, $4)`
	for _, t := range r.Summary.PerTruck {
		if _, err := tx.ExecContext(ctx, insertTruck, r.ID.String(), t.ID, t.Deliveries, t.TotalWaitTicks); err != nil {
			return uuid.Nil, fmt.Errorf("save run %s: truck %s: %w", r.ID, t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("save run %s: commit: %w", r.ID, err)
	}
	return r.ID, nil
}

// RunInfo is the list view of a stored run.
type RunInfo struct {
	ID                   uuid.UUID
	StartedAt            time.Time
	Trucks               int
	UnloadStations       int
	Seed                 int64
	Assignment           string
	RunTicks             int64
	Stopped              bool
	TotalDeliveries      int
	AverageDeliveryTicks float64
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	q := `SELECT run_id, started_at, trucks, unload_stations, seed, assignment,
		run_ticks, stopped, total_deliveries, average_delivery_ticks
		FROM runs ORDER BY started_at DESC, run_id`
	if limit > 0 {
		q += " LIMIT " + strconv.Itoa(limit)
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info      RunInfo
			id        string
			startedAt string
			stopped   int
		)
		if err := rows.Scan(&id, &startedAt, &info.Trucks, &info.UnloadStations, &info.Seed, &info.Assignment,
			&info.RunTicks, &stopped, &info.TotalDeliveries, &info.AverageDeliveryTicks); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("list runs: run id %q: %w", id, err)
		}
		if info.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("list runs: run %s started_at: %w", id, err)
		}
		info.Stopped = stopped != 0
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// GetRun loads one run with its full configuration and summary.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		startedAt, cfgJSON, sumJSON string
		stopped                     int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, stopped, config_json, summary_json FROM runs WHERE run_id = $1`,
		id.String()).Scan(&startedAt, &stopped, &cfgJSON, &sumJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	r := &Run{ID: id, Stopped: stopped != 0, Summary: &sim.Summary{}}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("get run %s: started_at: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cfgJSON), &r.Config); err != nil {
		return nil, fmt.Errorf("get run %s: config: %w", id, err)
	}
	if err := json.Unmarshal([]byte(sumJSON), r.Summary); err != nil {
		return nil, fmt.Errorf("get run %s: summary: %w", id, err)
	}
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
