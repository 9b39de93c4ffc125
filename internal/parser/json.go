package parser

import (
	"encoding/json"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
)

// GeoJSONParser handles USGS-style GeoJSON feature payloads.
type GeoJSONParser struct{}

func (GeoJSONParser) Priority() int { return 80 }
func (GeoJSONParser) Type() string  { return "geojson" }

type geoJSONFeature struct {
	Properties struct {
		Mag    float64 `json:"mag"`
		Place  string  `json:"place"`
		Time   int64   `json:"time"` // epoch millis
		Update int64   `json:"updated"`
		Status string  `json:"status"`
		Alert  string  `json:"alert"`
		Tsunami int    `json:"tsunami"`
		MagType string `json:"magType"`
		Sources string `json:"net"`
		URL     string `json:"url"`
	} `json:"properties"`
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // [lon, lat, depth_km]
	} `json:"geometry"`
}

// geoJSONDoc probes the top-level shape before committing to either a
// bare Feature or a FeatureCollection: USGS's per-event feed is one
// Feature, but its summary feeds (and GDACS mirrors of the same format)
// wrap many under "features".
type geoJSONDoc struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

func (GeoJSONParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	var doc geoJSONDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, errs.Rejection(err)
	}

	features := doc.Features
	if len(features) == 0 {
		var f geoJSONFeature
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, errs.Rejection(err)
		}
		features = []geoJSONFeature{f}
	}

	var reports []models.Report
	for _, f := range features {
		if r, ok := geoJSONFeatureToReport(f); ok {
			reports = append(reports, r)
		}
	}
	if len(reports) == 0 {
		return nil, errs.Rejection(nil)
	}
	return reports, nil
}

func geoJSONFeatureToReport(f geoJSONFeature) (models.Report, bool) {
	if f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
		return models.Report{}, false
	}

	coords := models.Coords{
		Lon:        f.Geometry.Coordinates[0],
		Lat:        f.Geometry.Coordinates[1],
		Confidence: 0.9,
	}
	if len(f.Geometry.Coordinates) >= 3 {
		coords.AltKm = -f.Geometry.Coordinates[2]
	}

	r := models.Report{
		Coords:  coords,
		Time:    time.UnixMilli(f.Properties.Time),
		Mag:     models.NewMagnitude(f.Properties.Mag, f.Properties.MagType),
		Status:  models.ParseStatus(f.Properties.Status),
		Alert:   models.ParseSeverity(f.Properties.Alert),
		Sources: []string{f.Properties.Sources},
		Links:   []string{f.Properties.URL},
		Score:   0.9,
	}
	if f.Properties.Update > 0 {
		r.Update = time.UnixMilli(f.Properties.Update)
	} else {
		r.Update = r.Time
	}
	if f.Properties.Tsunami == 1 {
		r.Water = models.WaterFlag{Present: true}
	}
	return r, true
}

// P2PQuakeParser handles the P2PQuake JSON wire format used by Japanese
// crowdsourced earthquake feeds.
type P2PQuakeParser struct{}

func (P2PQuakeParser) Priority() int { return 80 }
func (P2PQuakeParser) Type() string  { return "p2pquake" }

type p2pQuakePayload struct {
	Code       int    `json:"code"`
	Time       string `json:"time"`
	Earthquake struct {
		Hypocenter struct {
			Lat     float64 `json:"latitude"`
			Lon     float64 `json:"longitude"`
			Depth   float64 `json:"depth"`
			Mag     float64 `json:"magnitude"`
			Name    string  `json:"name"`
		} `json:"hypocenter"`
		MaxScale int `json:"maxScale"`
	} `json:"earthquake"`
}

const p2pQuakeTimeLayout = "2006/01/02 15:04:05.999"

func (P2PQuakeParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	var p p2pQuakePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errs.Rejection(err)
	}
	if p.Code != 551 {
		return nil, errs.Rejection(nil)
	}

	t, err := time.Parse(p2pQuakeTimeLayout, p.Time)
	if err != nil {
		t = meta.FetchedAt
	}

	r := models.Report{
		Coords: models.Coords{
			Lat:        p.Earthquake.Hypocenter.Lat,
			Lon:        p.Earthquake.Hypocenter.Lon,
			AltKm:      -p.Earthquake.Hypocenter.Depth,
			Confidence: 0.95,
		},
		Time:   t,
		Update: t,
		Mag:    models.NewMagnitude(p.Earthquake.Hypocenter.Mag, "Mj"),
		Status: models.ParseStatus("reported"),
		Intensity: models.Intensity{
			Scale: models.ScaleShindo,
			Value: models.NormalizeShindo(float64(p.Earthquake.MaxScale) / 10),
		},
		Sources: []string{"p2pquake"},
		Score:   0.9,
	}
	return []models.Report{r}, nil
}
