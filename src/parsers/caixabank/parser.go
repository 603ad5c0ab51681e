// backend/src/parsers/caixabank/parser.go
package caixabank

import (
	"fmt"
	"strings"

	"github.com/username/cartera/backend/src/models"
	"github.com/username/cartera/backend/src/parsers"
)

// Parser reads CaixaBank statement exports: pipe-delimited lines without a
// header row, in the form
//
//	F.OPERACION|F.VALOR|CONCEPTO|IMPORTE|SALDO
//
// Amounts keep their sign (credit positive, debit negative) and each row is
// categorized by a Spanish keyword table.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) ID() string { return "caixabank" }

const minFields = 5

// categoryRule maps substrings of the concept line to a category.
// Rules are tried in order and the first match wins; rows matching nothing
// stay uncategorized. Keywords are listed with and without accents because
// exports are inconsistent about encoding.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"salary", []string{"nomina", "nómina"}},
	{"transfer", []string{"transferencia", "traspaso", "bizum"}},
	{"card", []string{"tarjeta", "compra tarj"}},
	{"direct_debit", []string{"recibo", "domiciliacion", "domiciliación", "adeudo"}},
	{"atm", []string{"cajero", "reintegro"}},
	{"fee", []string{"comision", "comisión", "mantenimiento"}},
	{"interest", []string{"interes", "interés", "liquidacion intereses"}},
	{"mortgage", []string{"hipoteca", "prestamo hipotecario", "préstamo hipotecario"}},
	{"rent", []string{"alquiler"}},
	{"utilities", []string{"luz", "electricidad", "agua", "gas natural", "telefono", "teléfono", "internet", "fibra"}},
	{"insurance", []string{"seguro", "poliza", "póliza"}},
	{"subscription", []string{"suscripcion", "suscripción", "netflix", "spotify", "hbo"}},
}

// CanParse matches on the filename or on the headerless pipe shape: at least
// five pipe-delimited fields on the first line.
func (p *Parser) CanParse(content, filename string) bool {
	lowerName := strings.ToLower(filename)
	if strings.Contains(lowerName, "caixa") {
		return true
	}
	return len(strings.Split(parsers.FirstLine(content), "|")) >= minFields
}

// Parse extracts bank transactions, one error string per malformed line.
// There is no header: every non-empty line is a statement row.
func (p *Parser) Parse(content string) (*models.ParseResult, error) {
	result := &models.ParseResult{Broker: p.ID()}

	lineNum := 0
	for _, line := range strings.Split(content, "\n") {
		lineNum++
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < minFields {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: expected at least %d fields, got %d", lineNum, minFields, len(fields)))
			continue
		}

		rawDate := strings.TrimSpace(fields[0])
		date, ok := parsers.ParseDate(rawDate)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid date %q", lineNum, rawDate))
			continue
		}

		description := strings.TrimSpace(fields[2])
		if description == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: empty concept", lineNum))
			continue
		}

		// Signed amount: the sign is the direction for bank rows.
		rawAmount := strings.TrimSpace(fields[3])
		amount := parsers.ParseNumber(rawAmount)
		negative := strings.HasPrefix(rawAmount, "-")
		if negative && amount > 0 {
			amount = -amount
		}

		result.BankTransactions = append(result.BankTransactions, models.ParsedBankTransaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Balance:     parsers.ParseNumber(strings.TrimSpace(fields[4])),
			Category:    Categorize(description),
		})
	}
	return result, nil
}

// Categorize returns the first matching category for a concept line, or the
// empty string when no keyword matches.
func Categorize(description string) string {
	lower := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return ""
}
