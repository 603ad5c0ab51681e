// backend/src/parsers/preview.go
package parsers

import (
	"sort"
	"strings"
)

// Confidence grades how strongly a payload resembles a broker's format.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

var confidenceRank = map[Confidence]int{
	ConfidenceHigh:   3,
	ConfidenceMedium: 2,
	ConfidenceLow:    1,
	ConfidenceNone:   0,
}

// PreviewMatch is one broker's graded match for a payload.
type PreviewMatch struct {
	Broker     string     `json:"broker"`
	Confidence Confidence `json:"confidence"`
}

// previewRule carries the standalone heuristics the preview detector uses.
// These are intentionally independent from each parser's CanParse: the
// registry's first-match detection and this ranked preview can disagree, and
// both behaviors are kept as-is.
type previewRule struct {
	broker        string
	filenameHints []string
	strongWords   []string // header keywords that identify the format
	weakWords     []string // keywords that merely suggest it
	pipeShape     bool     // headerless pipe-delimited exports
}

var previewRules = []previewRule{
	{
		broker:        "degiro",
		filenameHints: []string{"degiro"},
		strongWords:   []string{"producto", "product", "produkt", "variación", "unitario"},
		weakWords:     []string{"isin", "bolsa"},
	},
	{
		broker:        "ibkr",
		filenameHints: []string{"ibkr", "flex", "activity"},
		strongWords:   []string{"tradeid", "tradeprice", "ibcommission"},
		weakWords:     []string{"symbol", "proceeds"},
	},
	{
		broker:        "caixabank",
		filenameHints: []string{"caixa", "movimientos", "extracto"},
		pipeShape:     true,
	},
}

// PreviewDetect grades every known broker against the payload and returns the
// matches ranked best-first (ties keep broker declaration order).
func PreviewDetect(content, filename string) []PreviewMatch {
	firstLine := strings.ToLower(FirstLine(content))
	lowerName := strings.ToLower(filename)

	matches := make([]PreviewMatch, 0, len(previewRules))
	for _, rule := range previewRules {
		matches = append(matches, PreviewMatch{
			Broker:     rule.broker,
			Confidence: rule.grade(firstLine, lowerName),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return confidenceRank[matches[i].Confidence] > confidenceRank[matches[j].Confidence]
	})
	return matches
}

func (r previewRule) grade(firstLine, lowerName string) Confidence {
	filenameHit := false
	for _, hint := range r.filenameHints {
		if hint != "" && strings.Contains(lowerName, hint) {
			filenameHit = true
			break
		}
	}

	contentHit := false
	for _, w := range r.strongWords {
		if strings.Contains(firstLine, w) {
			contentHit = true
			break
		}
	}
	if r.pipeShape && strings.Count(firstLine, "|") >= 4 {
		contentHit = true
	}

	weakHit := false
	for _, w := range r.weakWords {
		if strings.Contains(firstLine, w) {
			weakHit = true
			break
		}
	}

	switch {
	case filenameHit && contentHit:
		return ConfidenceHigh
	case contentHit:
		return ConfidenceMedium
	case filenameHit || weakHit:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
