// Package heuristics persists the per-feature learning counters the
// scoring package folds crowdsourced outcomes into, using the same
// crash-safe SQLite pattern as the thresholds store.
package heuristics

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/quakewatch/quakewatch/internal/scoring"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("heuristics: opening database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=FULL")

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("heuristics: pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("heuristics: migrating database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS feature_stats (
			feature  TEXT PRIMARY KEY,
			positive REAL NOT NULL DEFAULT 0,
			negative REAL NOT NULL DEFAULT 0,
			neutral  REAL NOT NULL DEFAULT 0
		)
	`)
	return err
}

// LoadFeatureStats satisfies scoring.Store.
func (s *Store) LoadFeatureStats() (map[string]*scoring.FeatureStats, error) {
	rows, err := s.db.Query(`SELECT feature, positive, negative, neutral FROM feature_stats`)
	if err != nil {
		return nil, fmt.Errorf("heuristics: loading feature stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*scoring.FeatureStats)
	for rows.Next() {
		var feature string
		fs := &scoring.FeatureStats{}
		if err := rows.Scan(&feature, &fs.Positive, &fs.Negative, &fs.Neutral); err != nil {
			return nil, err
		}
		out[feature] = fs
	}
	return out, rows.Err()
}

// SaveFeatureStats satisfies scoring.Store.
func (s *Store) SaveFeatureStats(stats map[string]*scoring.FeatureStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("heuristics: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO feature_stats (feature, positive, negative, neutral)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(feature) DO UPDATE SET positive=excluded.positive, negative=excluded.negative, neutral=excluded.neutral
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for feature, fs := range stats {
		if _, err := stmt.Exec(feature, fs.Positive, fs.Negative, fs.Neutral); err != nil {
			return fmt.Errorf("heuristics: saving feature %q: %w", feature, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }
