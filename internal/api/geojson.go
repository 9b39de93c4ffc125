package api

import (
	"github.com/quakewatch/quakewatch/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders the fusion engine's live event snapshot as a GeoJSON
// feature collection, one point per event at its fused centroid.
func toGeoJSON(events []*models.Event) FeatureCollection {
	features := make([]Feature, 0, len(events))

	for _, e := range events {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{e.Coords.Lon, e.Coords.Lat},
			},
			Properties: map[string]any{
				"id":         e.ID,
				"region":     e.Region,
				"magnitude":  e.Mag.Value,
				"depth_km":   e.Coords.DepthKm(),
				"intensity":  e.Intensity.String(),
				"alert":      e.Alert.String(),
				"status":     e.Status.Label,
				"confidence": e.Confidence(),
				"updated_at": e.Update,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
