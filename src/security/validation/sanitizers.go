// backend/src/security/validation/sanitizers.go
package validation

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Strict policy: removes all HTML tags.
	strictHTMLPolicy *bluemonday.Policy

	// Formula injection trigger characters at the start of a string.
	formulaInjectionPrefixRe = regexp.MustCompile(`^[=+\-@\t\r]`)
)

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy()
}

// SanitizeText removes all HTML tags and attributes from an input string.
// Broker CSV cells end up as display strings (product names, descriptions),
// so they are stripped before persistence.
func SanitizeText(s string) string {
	return strings.TrimSpace(strictHTMLPolicy.Sanitize(s))
}

// SanitizeForFormulaInjection prepends a single quote when the string starts
// with a formula trigger character, preventing CSV formula injection if the
// value is ever re-exported to a spreadsheet.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if formulaInjectionPrefixRe.MatchString(trimmed) {
		return "'" + s
	}
	return s
}
