package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var titleMagnitudeRe = regexp.MustCompile(`(?i)M\s*([0-9]+(?:[.,][0-9]+)?)`)

// extractMagnitudeFromTitle pulls a leading "M 5.2" style magnitude out of
// a bulletin title, normalizing a comma decimal separator to a dot.
func extractMagnitudeFromTitle(title string) (float64, bool) {
	m := titleMagnitudeRe.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// fmtSscan is a thin wrapper so callers needn't import fmt directly for a
// single Sscan call.
func fmtSscan(src string, a, b *float64) (int, error) {
	return fmt.Sscan(src, a, b)
}
