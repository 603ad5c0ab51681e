// backend/src/parsers/interfaces.go
package parsers

import (
	"github.com/username/cartera/backend/src/models"
)

// Parser is the common contract every broker format implements. CanParse is a
// cheap heuristic (filename substrings, header keywords, delimiter shape);
// Parse extracts whatever rows it can, collecting one error string per
// malformed row instead of failing the file.
type Parser interface {
	ID() string
	CanParse(content, filename string) bool
	Parse(content string) (*models.ParseResult, error)
}
