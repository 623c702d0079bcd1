// Package sqlite stores extracted waves in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Store writes wave records to SQLite. It implements pipeline.WaveLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite store ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Name identifies the sink in metrics and errors.
func (s *Store) Name() string { return "sqlite" }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// LoadWaves stores a run and its waves in one transaction. Storing the
// same run again replaces its waves.
func (s *Store) LoadWaves(ctx context.Context, run domain.RunInfo, records []domain.WaveRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear run %s: %w", run.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, generated_at, beta, delta, with_equivalence) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.GeneratedAt.UTC().Format(time.RFC3339Nano), run.Beta, run.Delta, run.WithEquivalence,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	waveStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO waves (run_id, wave_index, source, sink, length, propagation_days, red) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare waves: %w", err)
	}
	defer waveStmt.Close()
	vertexStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO wave_vertices (run_id, wave_index, position, station, date, river_km, value, color) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare wave vertices: %w", err)
	}
	defer vertexStmt.Close()

	for _, r := range records {
		if _, err := waveStmt.ExecContext(ctx, run.ID, r.Index, r.Source, r.Sink, r.Length, r.PropagationDays, r.Red); err != nil {
			return fmt.Errorf("insert wave %d: %w", r.Index, err)
		}
		for pos, v := range r.Vertices {
			if _, err := vertexStmt.ExecContext(ctx, run.ID, r.Index, pos, v.Key.Station, v.Key.Date, v.RiverKm, v.Value, string(v.Color)); err != nil {
				return fmt.Errorf("insert wave %d vertex %d: %w", r.Index, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("waves stored", "run_id", run.ID, "count", len(records))
	return nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]domain.RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, generated_at, beta, delta, with_equivalence FROM runs ORDER BY generated_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunInfo
	for rows.Next() {
		var (
			r           domain.RunInfo
			generatedAt string
		)
		if err := rows.Scan(&r.ID, &generatedAt, &r.Beta, &r.Delta, &r.WithEquivalence); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Waves returns the stored waves of a run in extraction order.
func (s *Store) Waves(ctx context.Context, runID string) ([]domain.WaveRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wave_index, source, sink, length, propagation_days, red
		   FROM waves WHERE run_id = ? ORDER BY wave_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query waves: %w", err)
	}
	defer rows.Close()

	var records []domain.WaveRecord
	byIndex := make(map[int]int)
	for rows.Next() {
		r := domain.WaveRecord{RunID: runID}
		if err := rows.Scan(&r.Index, &r.Source, &r.Sink, &r.Length, &r.PropagationDays, &r.Red); err != nil {
			return nil, fmt.Errorf("scan wave: %w", err)
		}
		byIndex[r.Index] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := s.db.QueryContext(ctx,
		`SELECT wave_index, station, date, river_km, value, color
		   FROM wave_vertices WHERE run_id = ? ORDER BY wave_index, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query wave vertices: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			index int
			v     domain.Vertex
			color string
		)
		if err := vrows.Scan(&index, &v.Key.Station, &v.Key.Date, &v.RiverKm, &v.Value, &color); err != nil {
			return nil, fmt.Errorf("scan wave vertex: %w", err)
		}
		v.Color = domain.Color(color)
		i := byIndex[index]
		records[i].Vertices = append(records[i].Vertices, v)
	}
	return records, vrows.Err()
}

// WavesThrough counts the stored waves of a run that pass the station.
func (s *Store) WavesThrough(ctx context.Context, runID, station string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT wave_index) FROM wave_vertices WHERE run_id = ? AND station = ?`,
		runID, station,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waves through %s: %w", station, err)
	}
	return n, nil
}
