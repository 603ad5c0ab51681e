// backend/src/parsers/registry.go
package parsers

import (
	"fmt"
	"strings"
)

// ErrFormatNotRecognized is returned when neither the explicit broker hint
// nor content sniffing selects a parser.
var ErrFormatNotRecognized = fmt.Errorf("file format not recognized")

// Registry holds the available parsers in a fixed registration order.
// Detection is deliberately not confidence-scored here: the first parser
// whose CanParse matches wins. The confidence-ranked preview detector in
// preview.go is a separate mechanism and the two may disagree.
type Registry struct {
	parsers []Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// Supported lists the registered broker ids in registration order.
func (r *Registry) Supported() []string {
	ids := make([]string, 0, len(r.parsers))
	for _, p := range r.parsers {
		ids = append(ids, p.ID())
	}
	return ids
}

// Resolve selects a parser for a payload. An explicit broker id always wins
// over content sniffing (case-insensitive exact match); otherwise parsers
// are tried in registration order. An unknown hint falls through to sniffing
// rather than failing outright.
func (r *Registry) Resolve(brokerID, content, filename string) (Parser, error) {
	if brokerID != "" {
		for _, p := range r.parsers {
			if strings.EqualFold(p.ID(), brokerID) {
				return p, nil
			}
		}
	}
	for _, p := range r.parsers {
		if p.CanParse(content, filename) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: supported brokers are %s",
		ErrFormatNotRecognized, strings.Join(r.Supported(), ", "))
}
