package parser

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
)

// CSVParser matches a header row by column-name heuristic, tolerating the
// common aliases each field shows up under across feeds.
type CSVParser struct{}

func (CSVParser) Priority() int { return 50 }
func (CSVParser) Type() string  { return "csv" }

var columnAliases = map[string][]string{
	"mag":   {"magnitude", "mag", "mg"},
	"depth": {"depth", "depth_km", "depthkm"},
	"time":  {"time", "datetime", "origin_time", "date"},
	"lat":   {"latitude", "lat"},
	"lon":   {"longitude", "lon", "lng"},
}

func matchColumn(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func (CSVParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil, errs.Rejection(err)
	}
	header := rows[0]

	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		idx := matchColumn(header, aliases)
		if idx == -1 {
			return nil, errs.Rejection(nil)
		}
		cols[field] = idx
	}

	var reports []models.Report
	for _, row := range rows[1:] {
		if r, ok := csvRowToReport(row, cols); ok {
			reports = append(reports, r)
		}
	}
	if len(reports) == 0 {
		return nil, errs.Rejection(nil)
	}
	return reports, nil
}

func csvRowToReport(row []string, cols map[string]int) (models.Report, bool) {
	get := func(field string) string {
		idx := cols[field]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	mag, _ := strconv.ParseFloat(normalizeDecimal(get("mag")), 64)
	depth, _ := strconv.ParseFloat(normalizeDecimal(get("depth")), 64)
	lat, _ := strconv.ParseFloat(normalizeDecimal(get("lat")), 64)
	lon, _ := strconv.ParseFloat(normalizeDecimal(get("lon")), 64)

	t, err := time.Parse(time.RFC3339, get("time"))
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", get("time"))
		if err != nil {
			return models.Report{}, false
		}
	}

	r := models.Report{
		Coords: models.Coords{Lat: lat, Lon: lon, AltKm: -depth, Confidence: 0.8},
		Time:   t,
		Update: t,
		Mag:    models.NewMagnitude(mag, "M"),
		Status: models.ParseStatus("reported"),
		Score:  0.7,
	}
	return r, true
}

func normalizeDecimal(s string) string {
	return strings.Replace(s, ",", ".", 1)
}
