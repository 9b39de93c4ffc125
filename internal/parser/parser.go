// Package parser implements the priority-ordered parser dispatch of §4.2:
// a payload is tried against registered parsers from highest priority to
// lowest, and the first one that doesn't reject it wins.
package parser

import (
	"sort"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
)

// Meta carries context about a payload that isn't part of the payload
// itself: which adapter fetched it, when, and from where.
type Meta struct {
	Adapter   string
	SourceURI string
	FetchedAt time.Time
}

// Parser turns a raw payload into one or more Reports, or rejects it with
// errs.CategoryRejection when the payload isn't in its format. A single
// fetch can carry many items (a GeoJSON FeatureCollection, an Atom feed's
// entries, every data row in a CSV dump); Parse returns every Report it
// could extract, not just the first.
type Parser interface {
	Priority() int
	Type() string
	Parse(payload []byte, meta Meta) ([]models.Report, error)
}

// Dispatcher tries registered parsers in descending priority order.
type Dispatcher struct {
	parsers []Parser
}

// NewDispatcher builds a Dispatcher over parsers, sorted by descending
// priority; ties keep registration order.
func NewDispatcher(parsers ...Parser) *Dispatcher {
	d := &Dispatcher{parsers: append([]Parser(nil), parsers...)}
	sort.SliceStable(d.parsers, func(i, j int) bool {
		return d.parsers[i].Priority() > d.parsers[j].Priority()
	})
	return d
}

// Register adds a parser and re-sorts by priority.
func (d *Dispatcher) Register(p Parser) {
	d.parsers = append(d.parsers, p)
	sort.SliceStable(d.parsers, func(i, j int) bool {
		return d.parsers[i].Priority() > d.parsers[j].Priority()
	})
}

// Dispatch tries every parser in priority order, returning every Report
// the first accepting parser extracted. If every parser rejects the
// payload, it returns the last rejection wrapped as errs.CategoryParse.
func (d *Dispatcher) Dispatch(payload []byte, meta Meta) ([]models.Report, error) {
	var lastErr error
	for _, p := range d.parsers {
		reports, err := p.Parse(payload, meta)
		if err == nil {
			for i := range reports {
				reports[i].Adapter = meta.Adapter
			}
			return reports, nil
		}
		if errs.Is(err, errs.CategoryRejection) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr == nil {
		lastErr = errs.Rejection(nil)
	}
	return nil, errs.Parse(lastErr)
}
