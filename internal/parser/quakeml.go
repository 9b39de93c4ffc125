package parser

import (
	"encoding/xml"
	"math"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
)

// QuakeMLParser handles QuakeML event documents, including the
// station-level fallback where only a pick's dominant period is present
// and magnitude must be estimated from it.
type QuakeMLParser struct{}

func (QuakeMLParser) Priority() int { return 90 }
func (QuakeMLParser) Type() string  { return "quakeml" }

type quakeMLDoc struct {
	XMLName    xml.Name `xml:"quakeml"`
	EventParam struct {
		Events []quakeMLEvent `xml:"event"`
	} `xml:"eventParameters"`
}

type quakeMLEvent struct {
	Origins []struct {
		Time struct {
			Value string `xml:"value"`
		} `xml:"time"`
		Lat struct {
			Value float64 `xml:"value"`
		} `xml:"latitude"`
		Lon struct {
			Value float64 `xml:"value"`
		} `xml:"longitude"`
		Depth struct {
			Value float64 `xml:"value"` // meters
		} `xml:"depth"`
		EvaluationStatus string `xml:"evaluationStatus"`
	} `xml:"origin"`
	Magnitudes []struct {
		Mag struct {
			Value float64 `xml:"value"`
		} `xml:"mag"`
		Type string `xml:"type"`
	} `xml:"magnitude"`
	Picks []struct {
		DominantPeriod float64 `xml:"dominantPeriod"`
	} `xml:"pick"`
}

const quakeMLTimeLayout = "2006-01-02T15:04:05.999999Z"

// estimateMagnitudeFromPeriod implements m = clip(0.80*log10(t0)^2 +
// 1.7*log10(t0) - 0.87, 3.5, 6.5), a station-level magnitude-proxy used
// when no computed magnitude is present, only a dominant period.
func estimateMagnitudeFromPeriod(t0 float64) float64 {
	if t0 <= 0 {
		return 3.5
	}
	logT0 := math.Log10(t0)
	m := 0.80*logT0*logT0 + 1.7*logT0 - 0.87
	if m < 3.5 {
		return 3.5
	}
	if m > 6.5 {
		return 6.5
	}
	return m
}

func (QuakeMLParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	var doc quakeMLDoc
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, errs.Rejection(err)
	}
	if len(doc.EventParam.Events) == 0 {
		return nil, errs.Rejection(nil)
	}

	var reports []models.Report
	for _, ev := range doc.EventParam.Events {
		if r, ok := quakeMLEventToReport(ev, meta); ok {
			reports = append(reports, r)
		}
	}
	if len(reports) == 0 {
		return nil, errs.Rejection(nil)
	}
	return reports, nil
}

func quakeMLEventToReport(ev quakeMLEvent, meta Meta) (models.Report, bool) {
	if len(ev.Origins) == 0 {
		return models.Report{}, false
	}
	origin := ev.Origins[0]

	t, err := time.Parse(quakeMLTimeLayout, origin.Time.Value)
	if err != nil {
		t = meta.FetchedAt
	}

	var mag models.Magnitude
	score := 0.85
	if len(ev.Magnitudes) > 0 {
		mag = models.NewMagnitude(ev.Magnitudes[0].Mag.Value, ev.Magnitudes[0].Type)
	} else if len(ev.Picks) > 0 {
		estimate := estimateMagnitudeFromPeriod(ev.Picks[0].DominantPeriod)
		mag = models.NewMagnitude(estimate, "Md")
		score = 0.5
	} else {
		return models.Report{}, false
	}

	r := models.Report{
		Coords: models.Coords{
			Lat:        origin.Lat.Value,
			Lon:        origin.Lon.Value,
			AltKm:      -origin.Depth.Value / 1000,
			Confidence: 0.9,
		},
		Time:   t,
		Update: t,
		Mag:    mag,
		Status: models.ParseStatus(origin.EvaluationStatus),
		Score:  score,
	}
	return r, true
}
