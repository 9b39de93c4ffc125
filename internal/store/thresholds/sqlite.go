// Package thresholds persists §3's per-scope hourly acceptance baselines
// to a crash-safe SQLite database, grounded in the same database/sql +
// modernc.org/sqlite pattern used for the rest of this project's storage.
package thresholds

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/quakewatch/quakewatch/internal/models"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("thresholds: opening database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=FULL") // fsync on mutation, per the crash-safety contract

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("thresholds: pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("thresholds: migrating database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS thresholds (
			scope      TEXT PRIMARY KEY,
			averages   TEXT NOT NULL,
			variances  TEXT NOT NULL,
			counts     TEXT NOT NULL,
			sigma_mul  REAL NOT NULL
		)
	`)
	return err
}

// Load fetches a scope's threshold, or nil if it has never been observed.
func (s *Store) Load(ctx context.Context, scope string) (*models.Threshold, error) {
	row := s.db.QueryRowContext(ctx, `SELECT averages, variances, counts, sigma_mul FROM thresholds WHERE scope = ?`, scope)

	var averagesJSON, variancesJSON, countsJSON string
	var sigmaMul float64
	if err := row.Scan(&averagesJSON, &variancesJSON, &countsJSON, &sigmaMul); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("thresholds: loading scope %q: %w", scope, err)
	}

	t := models.NewThreshold(scope)
	t.SigmaMul = sigmaMul
	if err := json.Unmarshal([]byte(averagesJSON), &t.Averages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(variancesJSON), &t.Variances); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(countsJSON), &t.Counts); err != nil {
		return nil, err
	}
	return t, nil
}

// Save upserts t, fsynced by the journal pragma on every write.
func (s *Store) Save(ctx context.Context, t *models.Threshold) error {
	averagesJSON, err := json.Marshal(t.Averages)
	if err != nil {
		return err
	}
	variancesJSON, err := json.Marshal(t.Variances)
	if err != nil {
		return err
	}
	countsJSON, err := json.Marshal(t.Counts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thresholds (scope, averages, variances, counts, sigma_mul)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET averages=excluded.averages, variances=excluded.variances,
			counts=excluded.counts, sigma_mul=excluded.sigma_mul
	`, t.Scope, string(averagesJSON), string(variancesJSON), string(countsJSON), t.SigmaMul)
	if err != nil {
		return fmt.Errorf("thresholds: saving scope %q: %w", t.Scope, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
