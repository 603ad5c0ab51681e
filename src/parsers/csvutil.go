// backend/src/parsers/csvutil.go
package parsers

import (
	"encoding/csv"
	"strings"
)

// DetectDelimiter inspects the first non-empty line of content and returns
// the first rune from candidates that appears in it. The candidate order is
// the per-parser priority order. Falls back to the first candidate when none
// is found, which degrades to a single-column record the row loop will then
// report per-row.
func DetectDelimiter(content string, candidates []rune) rune {
	line := FirstLine(content)
	for _, d := range candidates {
		if strings.ContainsRune(line, d) {
			return d
		}
	}
	return candidates[0]
}

// FirstLine returns the first non-empty line of content, without the line
// terminator.
func FirstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if strings.TrimSpace(trimmed) != "" {
			return trimmed
		}
	}
	return ""
}

// ReadRecords splits content into CSV records using the given delimiter.
// Rows with a varying number of fields are allowed; quoting is lenient since
// broker exports are rarely strict about it.
func ReadRecords(content string, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// HeaderIndex maps a header row onto canonical column names using a
// per-broker synonym table (lowercased header cell -> canonical name).
// Unknown columns are ignored; the first occurrence of a canonical name wins.
func HeaderIndex(header []string, synonyms map[string]string) map[string]int {
	idx := make(map[string]int)
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(strings.Trim(cell, `"`)))
		canonical, ok := synonyms[key]
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}
	return idx
}

// Field safely extracts the column named canonical from a record, returning
// the empty string when the column is missing or the record is short.
func Field(record []string, idx map[string]int, canonical string) string {
	i, ok := idx[canonical]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
