// Package sqlite persists catalogs and evaluation runs in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the catalog and evaluation store ports for SQLite.
type Adapter struct {
	db *sql.DB
}

var (
	_ ports.CatalogStore    = (*Adapter)(nil)
	_ ports.EvaluationStore = (*Adapter)(nil)
)

// NewAdapter creates a connection and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return adapter, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// ImportCatalog replaces the stored catalog with c, preserving catalog order
// through an explicit position column. Everything happens in one transaction.
func (a *Adapter) ImportCatalog(ctx context.Context, c *domain.Catalog) error {
	if c == nil || c.Len() == 0 {
		return fmt.Errorf("sqlite adapter: %w: nothing to import", domain.ErrInvalidInput)
	}

	// 1. Start Transaction
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error before commit

	// 2. Drop the previous catalog; a stale row with a stale position would
	// corrupt load order
	if _, err := tx.ExecContext(ctx, "DELETE FROM tracks"); err != nil {
		return fmt.Errorf("failed to clear old catalog: %w", err)
	}

	// 3. Insert rows, prepared once for performance
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (
			position, track_id, track_name, artist_name, popularity,
			danceability, energy, acousticness, instrumentalness,
			liveness, speechiness, valence, tempo, loudness
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos := 0; pos < c.Len(); pos++ {
		t := c.At(pos)
		f := t.Features
		if _, err := stmt.ExecContext(
			ctx,
			pos,
			t.ID,
			t.Name,
			t.Artist,
			t.Popularity,
			f.Danceability,
			f.Energy,
			f.Acousticness,
			f.Instrumentalness,
			f.Liveness,
			f.Speechiness,
			f.Valence,
			f.Tempo,
			f.Loudness,
		); err != nil {
			return fmt.Errorf("failed to save track %s: %w", t.ID, err)
		}
	}

	// 4. Commit Transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// LoadCatalog returns the stored catalog in its import order.
func (a *Adapter) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id, track_name, artist_name, popularity,
			danceability, energy, acousticness, instrumentalness,
			liveness, speechiness, valence, tempo, loudness
		FROM tracks
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		var t domain.Track
		f := &t.Features
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Artist,
			&t.Popularity,
			&f.Danceability,
			&f.Energy,
			&f.Acousticness,
			&f.Instrumentalness,
			&f.Liveness,
			&f.Speechiness,
			&f.Valence,
			&f.Tempo,
			&f.Loudness,
		); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("sqlite adapter: %w: no catalog imported", domain.ErrNotFound)
	}

	catalog, err := domain.NewCatalog(tracks)
	if err != nil {
		return nil, fmt.Errorf("sqlite adapter: stored catalog invalid: %w", err)
	}
	return catalog, nil
}

// SaveEvaluation upserts a run record, so a running row can later flip to
// complete or failed under the same run_id.
func (a *Adapter) SaveEvaluation(ctx context.Context, report domain.EvaluationReport) error {
	if report.RunID == "" {
		return fmt.Errorf("sqlite adapter: %w: evaluation has no run id", domain.ErrInvalidInput)
	}
	query := `
		INSERT INTO evaluation_runs (
			run_id, status, k, artists, trials, hits, hit_rate, error, started_at, elapsed_ms
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status=excluded.status,
			k=excluded.k,
			artists=excluded.artists,
			trials=excluded.trials,
			hits=excluded.hits,
			hit_rate=excluded.hit_rate,
			error=excluded.error,
			elapsed_ms=excluded.elapsed_ms;
	`
	if _, err := a.db.ExecContext(
		ctx,
		query,
		report.RunID,
		report.Status,
		report.K,
		report.Artists,
		report.Trials,
		report.Hits,
		report.HitRate,
		report.Err,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.Elapsed.Milliseconds(),
	); err != nil {
		return fmt.Errorf("failed to save evaluation run: %w", err)
	}
	return nil
}

func (a *Adapter) GetEvaluation(ctx context.Context, runID string) (domain.EvaluationReport, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT run_id, status, k, artists, trials, hits, hit_rate, error, started_at, elapsed_ms
		FROM evaluation_runs
		WHERE run_id = ?
	`, runID)

	report, err := scanEvaluation(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.EvaluationReport{}, fmt.Errorf("sqlite adapter: run %s: %w", runID, domain.ErrNotFound)
		}
		return domain.EvaluationReport{}, fmt.Errorf("failed to load evaluation run: %w", err)
	}
	return report, nil
}

func (a *Adapter) ListEvaluations(ctx context.Context, limit int) ([]domain.EvaluationReport, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT run_id, status, k, artists, trials, hits, hit_rate, error, started_at, elapsed_ms
		FROM evaluation_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	defer rows.Close()

	var reports []domain.EvaluationReport
	for rows.Next() {
		report, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation run: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluation runs: %w", err)
	}
	return reports, nil
}

func scanEvaluation(scan func(dest ...any) error) (domain.EvaluationReport, error) {
	var (
		report    domain.EvaluationReport
		startedAt string
		elapsedMs int64
	)
	if err := scan(
		&report.RunID,
		&report.Status,
		&report.K,
		&report.Artists,
		&report.Trials,
		&report.Hits,
		&report.HitRate,
		&report.Err,
		&startedAt,
		&elapsedMs,
	); err != nil {
		return domain.EvaluationReport{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("bad started_at %q: %w", startedAt, err)
	}
	report.StartedAt = ts
	report.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return report, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		position INTEGER PRIMARY KEY,
		track_id TEXT NOT NULL UNIQUE,
		track_name TEXT NOT NULL,
		artist_name TEXT NOT NULL,
		popularity INTEGER NOT NULL DEFAULT -1,
		danceability REAL NOT NULL,
		energy REAL NOT NULL,
		acousticness REAL NOT NULL,
		instrumentalness REAL NOT NULL,
		liveness REAL NOT NULL,
		speechiness REAL NOT NULL,
		valence REAL NOT NULL,
		tempo REAL NOT NULL,
		loudness REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS evaluation_runs (
		run_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		k INTEGER NOT NULL,
		artists INTEGER NOT NULL DEFAULT 0,
		trials INTEGER NOT NULL DEFAULT 0,
		hits INTEGER NOT NULL DEFAULT 0,
		hit_rate REAL NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	// Columns added after the first release; tolerate re-runs.
	if _, err := a.db.Exec("ALTER TABLE tracks ADD COLUMN popularity INTEGER NOT NULL DEFAULT -1"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	if _, err := a.db.Exec("ALTER TABLE evaluation_runs ADD COLUMN artists INTEGER NOT NULL DEFAULT 0"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
