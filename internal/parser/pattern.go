package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
)

// PatternEntry is one catalog row: a compiled regex with named capture
// groups plus the timezone and default country to interpret it under.
// Named groups recognized: mag, maxmag, lat, lon, coords, depth, time,
// date, update, status, area, source, link, magtype, intensity, water,
// victims, alert. The update group is matched but not read: a report's
// Update is set to its origin time.
type PatternEntry struct {
	Regex          *regexp.Regexp
	TZ             *time.Location
	DefaultCountry string
}

// DefaultPatternCatalog is a representative slice of the full ~150-entry
// catalog the source carries: one pattern per structural shape the source
// recognizes (bulletin-style, inline-coords, area-only, Japanese bulletin,
// alert-color). Exhaustive per-agency wording variants are out of scope
// here; new entries register the same way.
var DefaultPatternCatalog = []PatternEntry{
	{
		Regex: regexp.MustCompile(`(?i)M(?:agnitude)?\s*(?P<mag>[0-9]+[.,][0-9]+)\s*earthquake.*?(?:near|at)\s+(?P<area>[A-Za-z ,]+?)(?:\s+on\s+(?P<date>[0-9/.-]+))?$`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)(?P<mag>[0-9]+[.,][0-9]+)\s*magnitude.*?(?P<lat>-?[0-9]+[.,][0-9]+)\s*,\s*(?P<lon>-?[0-9]+[.,][0-9]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)depth[: ]+(?P<depth>[0-9]+[.,]?[0-9]*)\s*km.*?M\s*(?P<mag>[0-9]+[.,][0-9]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`震度(?P<intensity>[0-9])\s*(?P<area>[^\s]+)\s*で地震`),
		TZ:    mustLoadLocation("Asia/Tokyo"),
	},
	{
		Regex: regexp.MustCompile(`(?i)tsunami\s+(?P<alert>warning|watch|advisory)\s+(?:issued for|for)\s+(?P<area>[A-Za-z ,]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)(?P<victims>[0-9]+)\s+(?:dead|killed|casualties).*?earthquake.*?(?P<area>[A-Za-z ,]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)updated?:?\s*(?P<update>[0-9:/ .-]+).*?M\s*(?P<mag>[0-9]+[.,][0-9]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)maxmag\s*(?P<maxmag>[0-9]+[.,][0-9]+).*?mag\s*(?P<mag>[0-9]+[.,][0-9]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)status[: ]+(?P<status>[a-z]+).*?M\s*(?P<mag>[0-9]+[.,][0-9]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)source[: ]+(?P<source>[A-Za-z]+).*?M\s*(?P<mag>[0-9]+[.,][0-9]+).*?(?P<coords>-?[0-9]+[.,][0-9]+\s+-?[0-9]+[.,][0-9]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)(?P<magtype>Mw|Ml|Mb|Md)\s*(?P<mag>[0-9]+[.,][0-9]+).*?(?P<time>[0-9]{4}-[0-9]{2}-[0-9]{2}[ T][0-9:]+)`),
		TZ:    time.UTC,
	},
	{
		Regex: regexp.MustCompile(`(?i)(?:in|near)\s+(?P<area>[A-Za-z ,]+?)[, ]+water[: ]+(?P<water>[a-z]+)`),
		TZ:    time.UTC,
	},
}

// denylist rejects payloads that superficially resemble a report but are a
// different kind of bulletin entirely.
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tsunami information statement`),
	regexp.MustCompile(`(?i)severe (thunder)?storm warning`),
	regexp.MustCompile(`(?i)this is a (test|drill|exercise)`),
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GeocodeAreaFunc resolves "area, country" text into coordinates with a
// caller-assigned confidence, used when a pattern captures an area name
// but no coordinates.
type GeocodeAreaFunc func(area, country string) (models.Coords, bool)

// RegionOfFunc names the Flinn-Engdahl region for a coordinate, used to
// cross-check a geocoded area against the pattern's implied region.
type RegionOfFunc func(models.Coords) string

// PatternParser matches free text against DefaultPatternCatalog (or a
// caller-supplied catalog), applying the denylist prefilter and the §4.2
// post-processing rules.
type PatternParser struct {
	catalog  []PatternEntry
	geocode  GeocodeAreaFunc
	regionOf RegionOfFunc
}

func NewPatternParser(catalog []PatternEntry, geocode GeocodeAreaFunc, regionOf RegionOfFunc) *PatternParser {
	if catalog == nil {
		catalog = DefaultPatternCatalog
	}
	return &PatternParser{catalog: catalog, geocode: geocode, regionOf: regionOf}
}

func (PatternParser) Priority() int { return 30 }
func (PatternParser) Type() string  { return "pattern" }

func (p *PatternParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	text := string(payload)
	for _, d := range denylist {
		if d.MatchString(text) {
			return nil, errs.Rejection(nil)
		}
	}

	for _, entry := range p.catalog {
		m := entry.Regex.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		groups := namedGroups(entry.Regex, m)
		r, err := p.build(groups, entry, meta, text)
		if err != nil {
			return nil, err
		}
		return []models.Report{r}, nil
	}
	return nil, errs.Rejection(nil)
}

func namedGroups(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || i >= len(m) {
			continue
		}
		out[name] = m[i]
	}
	return out
}

func (p *PatternParser) build(g map[string]string, entry PatternEntry, meta Meta, raw string) (models.Report, error) {
	magVal, magOK := parseNumeric(g["mag"])
	maxMagVal, maxMagOK := parseNumeric(g["maxmag"])
	if !magOK && !maxMagOK {
		return models.Report{}, errs.Rejection(nil)
	}

	var avg float64
	switch {
	case magOK && maxMagOK:
		avg = (magVal + maxMagVal) / 2
	case magOK:
		avg = magVal
	default:
		avg = maxMagVal
	}

	status := models.ParseStatus(g["status"])
	score := 0.4
	mag := models.NewMagnitude(avg, g["magtype"])
	if (models.Magnitude{}).IsBogus(avg) {
		score *= 0.1
		status = models.ParseStatus("incomplete")
	}

	coords, coordsOK := p.resolveCoords(g, entry)
	if !coordsOK {
		return models.Report{}, errs.Rejection(nil)
	}

	reportTime, zeroSeconds, ok := p.resolveTime(g, entry, meta)
	if !ok {
		return models.Report{}, errs.Rejection(nil)
	}
	if zeroSeconds {
		status = models.ParseStatus("incomplete")
	}

	r := models.Report{
		Coords:  coords,
		Time:    reportTime,
		Update:  reportTime,
		Mag:     mag,
		Status:  status,
		Alert:   models.ParseSeverity(g["alert"]),
		Water:   models.ParseWaterFlag(g["water"]),
		Sources: nonEmpty(g["source"]),
		Links:   nonEmpty(g["link"]),
		Text:    raw,
		Score:   score,
	}
	if v, ok := parseNumeric(g["victims"]); ok {
		r.Victims = int(v)
	}
	if g["intensity"] != "" {
		if v, ok := parseNumeric(g["intensity"]); ok {
			r.Intensity = models.Intensity{Scale: models.ScaleShindo, Value: models.NormalizeShindo(v)}
		}
	}
	return r, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func parseNumeric(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *PatternParser) resolveCoords(g map[string]string, entry PatternEntry) (models.Coords, bool) {
	depth, _ := parseNumeric(g["depth"])

	if lat, ok := parseNumeric(g["lat"]); ok {
		if lon, ok := parseNumeric(g["lon"]); ok {
			return models.Coords{Lat: lat, Lon: lon, AltKm: -depth, Confidence: 0.75}, true
		}
	}
	if g["coords"] != "" {
		parts := strings.Fields(g["coords"])
		if len(parts) == 2 {
			lat, okA := parseNumeric(parts[0])
			lon, okB := parseNumeric(parts[1])
			if okA && okB {
				return models.Coords{Lat: lat, Lon: lon, AltKm: -depth, Confidence: 0.75}, true
			}
		}
	}
	if g["area"] != "" && p.geocode != nil {
		country := entryDefaultCountry(g, entry)
		c, ok := p.geocode(g["area"], country)
		if !ok {
			return models.Coords{}, false
		}
		c.AltKm = -depth
		c.Confidence = 0.7
		if p.regionOf != nil {
			// region names vary in granularity across sources, so a
			// mismatch downgrades confidence rather than rejecting.
			if fe := p.regionOf(c); fe != "" && !regionMentions(fe, g["area"]) {
				c.Confidence *= 0.5
			}
		}
		return c, true
	}
	return models.Coords{}, false
}

func entryDefaultCountry(g map[string]string, entry PatternEntry) string {
	if entry.DefaultCountry != "" {
		return entry.DefaultCountry
	}
	return g["source"]
}

// regionMentions reports whether the geocoded Flinn-Engdahl region name
// shares a word with the free-text area the pattern captured, a loose
// consistency check since region granularity varies by source (e.g. "10km
// N of Tokyo" geocoding to a region named "Eastern Honshu, Japan").
func regionMentions(region, area string) bool {
	region = strings.ToLower(region)
	for _, word := range strings.FieldsFunc(strings.ToLower(area), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(word) >= 3 && strings.Contains(region, word) {
			return true
		}
	}
	return false
}

func (p *PatternParser) resolveTime(g map[string]string, entry PatternEntry, meta Meta) (t time.Time, zeroSeconds bool, ok bool) {
	raw := g["time"]
	if raw == "" {
		raw = g["date"]
	}
	if raw == "" {
		return meta.FetchedAt, false, true
	}

	loc := entry.TZ
	if loc == nil {
		loc = time.UTC
	}

	layouts := []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02", "01/02/2006"}
	var err error
	for _, layout := range layouts {
		t, err = time.ParseInLocation(layout, raw, loc)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false, false
	}

	now := time.Now()
	if t.After(now) || now.Sub(t) > 48*time.Hour {
		return time.Time{}, false, false
	}
	// zero-seconds precision implies the source truncated the clock; the
	// caller marks the report incomplete rather than rejecting it.
	zeroSeconds = t.Second() == 0 && t.Nanosecond() == 0
	return t, zeroSeconds, true
}
