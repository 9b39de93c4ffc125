// Package domains persists the subscription registry — one row per
// Domain predicate — in Postgres via pgx/pgxpool, grounded in the
// teacher's jackc/pgx require and the project's general preference for a
// relational store for anything with many independently-updated rows.
package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quakewatch/quakewatch/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("domains: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("domains: pinging: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("domains: migrating: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS domains (
			name       TEXT PRIMARY KEY,
			predicate  JSONB NOT NULL,
			empty      BOOLEAN NOT NULL DEFAULT FALSE,
			debug      BOOLEAN NOT NULL DEFAULT FALSE,
			updates    BOOLEAN NOT NULL DEFAULT TRUE
		)
	`)
	return err
}

// predicate is the JSON-serializable shape of a Domain's matching
// criteria. Domain itself isn't marshaled directly because its Region
// field is a compiled *regexp.Regexp and its History/Last fields are
// runtime-only state that doesn't belong in the registry.
type predicate struct {
	MagFloor     *float64           `json:"mag_floor,omitempty"`
	Box          *models.Box        `json:"box,omitempty"`
	Target       *models.Target     `json:"target,omitempty"`
	RegionRegex  string             `json:"region_regex,omitempty"`
	ScoreFloor   *float64           `json:"score_floor,omitempty"`
	WarningOnly  bool               `json:"warning_only,omitempty"`
	AlertFloor   *models.Severity   `json:"alert_floor,omitempty"`
	PeopleFloor  *float64           `json:"people_floor,omitempty"`
	RateCeiling  *float64           `json:"rate_ceiling,omitempty"`
	ReportsFloor *int               `json:"reports_floor,omitempty"`
	Categories   []models.Category  `json:"categories,omitempty"`
	Threshold    *models.ThresholdKey `json:"threshold,omitempty"`
}

func toPredicate(d *models.Domain) predicate {
	p := predicate{
		MagFloor:     d.MagFloor,
		Box:          d.Box,
		Target:       d.Target,
		ScoreFloor:   d.ScoreFloor,
		WarningOnly:  d.WarningOnly,
		AlertFloor:   d.AlertFloor,
		PeopleFloor:  d.PeopleFloor,
		RateCeiling:  d.RateCeiling,
		ReportsFloor: d.ReportsFloor,
		Threshold:    d.Threshold,
	}
	if d.Region != nil {
		p.RegionRegex = d.Region.String()
	}
	for c := range d.Categories {
		p.Categories = append(p.Categories, c)
	}
	return p
}

func fromPredicate(name string, p predicate, empty, debug, updates bool) (*models.Domain, error) {
	d := &models.Domain{
		Name:         name,
		MagFloor:     p.MagFloor,
		Box:          p.Box,
		Target:       p.Target,
		ScoreFloor:   p.ScoreFloor,
		WarningOnly:  p.WarningOnly,
		AlertFloor:   p.AlertFloor,
		PeopleFloor:  p.PeopleFloor,
		RateCeiling:  p.RateCeiling,
		ReportsFloor: p.ReportsFloor,
		Threshold:    p.Threshold,
		Empty:        empty,
		Debug:        debug,
		Updates:      updates,
	}
	if p.RegionRegex != "" {
		re, err := regexp.Compile(p.RegionRegex)
		if err != nil {
			return nil, fmt.Errorf("domains: compiling region regex for %q: %w", name, err)
		}
		d.Region = re
	}
	if len(p.Categories) > 0 {
		d.Categories = make(map[models.Category]struct{}, len(p.Categories))
		for _, c := range p.Categories {
			d.Categories[c] = struct{}{}
		}
	}
	return d, nil
}

// Upsert inserts or replaces d's predicate row.
func (s *Store) Upsert(ctx context.Context, d *models.Domain) error {
	body, err := json.Marshal(toPredicate(d))
	if err != nil {
		return fmt.Errorf("domains: marshaling predicate for %q: %w", d.Name, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO domains (name, predicate, empty, debug, updates)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET predicate=excluded.predicate, empty=excluded.empty,
			debug=excluded.debug, updates=excluded.updates
	`, d.Name, body, d.Empty, d.Debug, d.Updates)
	if err != nil {
		return fmt.Errorf("domains: upserting %q: %w", d.Name, err)
	}
	return nil
}

// Delete removes a subscription by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM domains WHERE name = $1`, name)
	return err
}

// LoadAll returns every registered subscription, recompiling region
// regexes and history left empty for the caller to populate from its own
// notice-delivery log if it wants per-domain dedup history restored.
func (s *Store) LoadAll(ctx context.Context) ([]*models.Domain, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, predicate, empty, debug, updates FROM domains`)
	if err != nil {
		return nil, fmt.Errorf("domains: loading: %w", err)
	}
	defer rows.Close()

	var out []*models.Domain
	for rows.Next() {
		var name string
		var body []byte
		var empty, debug, updates bool
		if err := rows.Scan(&name, &body, &empty, &debug, &updates); err != nil {
			return nil, err
		}
		var p predicate
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("domains: unmarshaling predicate for %q: %w", name, err)
		}
		d, err := fromPredicate(name, p, empty, debug, updates)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Close() { s.pool.Close() }
