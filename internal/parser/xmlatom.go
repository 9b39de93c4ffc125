package parser

import (
	"encoding/xml"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
)

// AtomParser handles Atom-feed earthquake bulletins (EMSC-style), where
// each entry's title carries "M 5.2 - 10km N of Somewhere".
type AtomParser struct{}

func (AtomParser) Priority() int { return 70 }
func (AtomParser) Type() string  { return "atom" }

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Updated   string `xml:"updated"`
	Published string `xml:"published"`
	Link      struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Point string `xml:"point"` // georss:point "lat lon", when present
}

func (AtomParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	var feed atomFeed
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, errs.Rejection(err)
	}
	if len(feed.Entries) == 0 {
		return nil, errs.Rejection(nil)
	}

	var reports []models.Report
	for _, e := range feed.Entries {
		if r, ok := atomEntryToReport(e, meta); ok {
			reports = append(reports, r)
		}
	}
	if len(reports) == 0 {
		return nil, errs.Rejection(nil)
	}
	return reports, nil
}

func atomEntryToReport(e atomEntry, meta Meta) (models.Report, bool) {
	mag, ok := extractMagnitudeFromTitle(e.Title)
	if !ok {
		return models.Report{}, false
	}

	lat, lon, hasCoords := parseGeoRSSPoint(e.Point)

	t, err := time.Parse(time.RFC3339, e.Published)
	if err != nil {
		t, err = time.Parse(time.RFC3339, e.Updated)
		if err != nil {
			t = meta.FetchedAt
		}
	}

	r := models.Report{
		Coords: models.Coords{Lat: lat, Lon: lon, Confidence: confidenceOf(hasCoords)},
		Time:   t,
		Update: t,
		Mag:    models.NewMagnitude(mag, "M"),
		Status: models.ParseStatus("reported"),
		Text:   e.Title,
		Links:  []string{e.Link.Href},
		Score:  0.6,
	}
	return r, true
}

func confidenceOf(hasCoords bool) float64 {
	if hasCoords {
		return 0.85
	}
	return 0
}

func parseGeoRSSPoint(point string) (lat, lon float64, ok bool) {
	var a, b float64
	n, err := fmtSscan(point, &a, &b)
	if err != nil || n != 2 {
		return 0, 0, false
	}
	return a, b, true
}
