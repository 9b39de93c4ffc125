// Package geocode defines the geocoding oracle boundary (§6): locating
// free text or coordinates, naming a Flinn-Engdahl region, testing for
// open water, and querying OpenStreetMap-style points of interest. These
// are external collaborators; this package ships a deterministic stub
// suitable for tests and local development, not a real geocoder.
package geocode

import (
	"fmt"

	"github.com/quakewatch/quakewatch/internal/models"
)

// Place is the result of resolving free text or coordinates to a location.
type Place struct {
	Point   models.Coords
	Address string
	Region  string
	Country string
}

// Feature is a single OpenStreetMap-style result from an OSM query.
type Feature struct {
	Name       string
	Geometry   models.Coords
	Properties map[string]string
}

// Oracle is the full external geocoding boundary.
type Oracle interface {
	Locate(query string) (Place, bool)
	LocateCoords(c models.Coords) (Place, bool)
	Region(c models.Coords) string
	Sea(c models.Coords) (isSea bool, name string)
	OSM(c models.Coords, radiusKm float64, tags []string) []Feature
	City(text, lang string) (models.Coords, bool)
}

// Stub is a deterministic, offline Oracle: every coordinate resolves to a
// placeholder region name built from a coarse 10-degree lat/lon bucket
// (e.g. "N30E130"), and nothing is ever classified as open water. It exists so the rest of the pipeline
// (region tagging, domain region-regex matching, population lookups) has
// something to call before a real provider is wired in.
type Stub struct{}

func (Stub) Locate(query string) (Place, bool) {
	return Place{}, false
}

func (Stub) LocateCoords(c models.Coords) (Place, bool) {
	return Place{Point: c, Region: Stub{}.Region(c)}, true
}

func (Stub) Region(c models.Coords) string {
	return bucketName(c)
}

func (Stub) Sea(c models.Coords) (bool, string) {
	return false, ""
}

func (Stub) OSM(c models.Coords, radiusKm float64, tags []string) []Feature {
	return nil
}

func (Stub) City(text, lang string) (models.Coords, bool) {
	return models.Coords{}, false
}

func bucketName(c models.Coords) string {
	latHemi, lat := "N", c.Lat
	if lat < 0 {
		latHemi, lat = "S", -lat
	}
	lonHemi, lon := "E", c.Lon
	if lon < 0 {
		lonHemi, lon = "W", -lon
	}
	return fmt.Sprintf("%s%d%s%d", latHemi, int(lat/10)*10, lonHemi, int(lon/10)*10)
}
