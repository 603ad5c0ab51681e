// backend/src/parsers/caixabank/parser_test.go
package caixabank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = `01/02/2024|01/02/2024|NOMINA ENERO EMPRESA SL|1.500,00|3.200,00
03/02/2024|03/02/2024|COMPRA TARJ. SUPERMERCADO|-45,30|3.154,70
05/02/2024|05/02/2024|RECIBO LUZ IBERDROLA|-60,00|3.094,70
10/02/2024|10/02/2024|BIZUM DE JUAN|25,00|3.119,70
`

func TestParseStatement(t *testing.T) {
	p := NewParser()
	result, err := p.Parse(statement)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.BankTransactions, 4)
	require.Empty(t, result.Transactions, "bank statements never produce broker transactions")

	salary := result.BankTransactions[0]
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), salary.Date)
	assert.Equal(t, "NOMINA ENERO EMPRESA SL", salary.Description)
	assert.InDelta(t, 1500.00, salary.Amount, 1e-9)
	assert.InDelta(t, 3200.00, salary.Balance, 1e-9)
	assert.Equal(t, "salary", salary.Category)

	card := result.BankTransactions[1]
	assert.InDelta(t, -45.30, card.Amount, 1e-9, "debits keep their sign")
	assert.Equal(t, "card", card.Category)
}

func TestParseBadLinesBecomeErrors(t *testing.T) {
	content := `garbage|01/02/2024|NOMINA|1.500,00|3.200,00
too|few|fields
01/02/2024|01/02/2024||1.500,00|3.200,00
01/02/2024|01/02/2024|NOMINA FEBRERO|1.500,00|3.200,00
`
	p := NewParser()
	result, err := p.Parse(content)
	require.NoError(t, err, "bad lines must not abort the batch")
	assert.Len(t, result.Errors, 3)
	require.Len(t, result.BankTransactions, 1)
	assert.Equal(t, "NOMINA FEBRERO", result.BankTransactions[0].Description)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"NOMINA ENERO EMPRESA SL", "salary"},
		{"Nómina enero", "salary"},
		{"TRANSFERENCIA A FAVOR DE", "transfer"},
		{"BIZUM DE MARIA", "transfer"},
		{"COMPRA TARJ. 1234", "card"},
		{"RECIBO DOMICILIACION SEGUROS", "direct_debit"},
		{"REINTEGRO CAJERO AUTOMATICO", "atm"},
		{"COMISION MANTENIMIENTO", "fee"},
		{"LIQUIDACION INTERESES", "interest"},
		{"PRESTAMO HIPOTECARIO CUOTA", "mortgage"},
		{"ALQUILER FEBRERO", "rent"},
		{"RECIBO LUZ IBERDROLA", "direct_debit"},
		{"FACTURA LUZ IBERDROLA", "utilities"},
		{"SEGURO HOGAR", "insurance"},
		{"NETFLIX.COM", "subscription"},
		{"ALGO SIN CATEGORIA", ""},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.description))
		})
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	// Matches both "recibo" (direct_debit) and "luz" (utilities); the rule
	// order decides.
	assert.Equal(t, "direct_debit", Categorize("RECIBO LUZ IBERDROLA"))
}

func TestCanParse(t *testing.T) {
	p := NewParser()
	assert.True(t, p.CanParse("", "caixabank_movimientos.csv"))
	assert.True(t, p.CanParse("a|b|c|d|e\n", "export.txt"))
	assert.False(t, p.CanParse("a|b|c\n", "export.txt"))
	assert.False(t, p.CanParse("Fecha,Producto,ISIN\n", "export.csv"))
}
