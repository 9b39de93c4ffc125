package parser

import (
	"testing"
	"time"
)

func TestDispatcherTriesGeoJSONThenFallsBackToPattern(t *testing.T) {
	d := NewDispatcher(GeoJSONParser{}, NewPatternParser(nil, nil, nil))

	geojson := []byte(`{"properties":{"mag":5.4,"place":"10km N of Tokyo","time":1700000000000,"status":"reviewed","magType":"mw"},"geometry":{"type":"Point","coordinates":[139.7,35.6,10]}}`)
	meta := Meta{Adapter: "usgs", FetchedAt: time.Now()}

	reports, err := d.Dispatch(geojson, meta)
	if err != nil {
		t.Fatalf("expected geojson parse to succeed, got %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(reports))
	}
	r := reports[0]
	if r.Mag.Value != 5.4 {
		t.Fatalf("expected mag 5.4, got %v", r.Mag.Value)
	}
	if r.Adapter != "usgs" {
		t.Fatalf("expected adapter tag to be set by the dispatcher, got %q", r.Adapter)
	}
}

func TestDispatcherFansOutFeatureCollection(t *testing.T) {
	d := NewDispatcher(GeoJSONParser{})

	collection := []byte(`{"type":"FeatureCollection","features":[
		{"properties":{"mag":5.4,"status":"reviewed"},"geometry":{"type":"Point","coordinates":[139.7,35.6,10]}},
		{"properties":{"mag":4.1,"status":"reviewed"},"geometry":{"type":"Point","coordinates":[-122.4,37.8,5]}}
	]}`)

	reports, err := d.Dispatch(collection, Meta{Adapter: "usgs", FetchedAt: time.Now()})
	if err != nil {
		t.Fatalf("expected FeatureCollection parse to succeed, got %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports from a 2-feature collection, got %d", len(reports))
	}
	if reports[0].Mag.Value != 5.4 || reports[1].Mag.Value != 4.1 {
		t.Fatalf("expected magnitudes [5.4, 4.1], got [%v, %v]", reports[0].Mag.Value, reports[1].Mag.Value)
	}
}

func TestDispatcherRejectsUnrecognizedPayload(t *testing.T) {
	d := NewDispatcher(GeoJSONParser{})
	_, err := d.Dispatch([]byte("not json at all"), Meta{FetchedAt: time.Now()})
	if err == nil {
		t.Fatal("expected rejection wrapped as a parse error")
	}
}
