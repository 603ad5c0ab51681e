// backend/src/parsers/locale.go
package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	currencySymbolRe = regexp.MustCompile(`[€$£\s"]`)
	europeanDecimal  = regexp.MustCompile(`,\d{1,2}$`)
	usDecimal        = regexp.MustCompile(`\.\d{1,2}$`)
)

// ParseNumber converts a numeric string in either European ("1.234,56") or
// US ("1,234.56") convention into a float64. The decimal convention is
// disambiguated by checking whether a comma or period is followed by exactly
// one or two trailing digits; when neither pattern matches, commas are
// treated as thousands separators and stripped. Non-numeric input yields 0 so
// that one bad cell does not abort a row.
func ParseNumber(raw string) float64 {
	cleaned := currencySymbolRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return 0
	}

	switch {
	case europeanDecimal.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case usDecimal.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// dateLayouts are tried in order; the ambiguous day-first layouts come after
// ISO so that "2024-01-15" is never read as day 2024.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	// generic fallbacks
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
}

// ParseDate parses a date string in any of the supported broker formats.
// It returns ok=false (never panics) on total failure; callers must treat
// that as a row-level error, not abort the batch.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeISIN uppercases and trims the input and accepts it only if it is
// exactly 12 characters long. The checksum digit is deliberately not
// validated; downstream dedup depends on this lenient definition.
func NormalizeISIN(raw string) string {
	isin := strings.ToUpper(strings.TrimSpace(raw))
	if len(isin) != 12 {
		return ""
	}
	return isin
}
