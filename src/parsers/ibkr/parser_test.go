// backend/src/parsers/ibkr/parser_test.go
package ibkr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cartera/backend/src/models"
)

const flexExport = `TradeDate,Symbol,ISIN,Buy/Sell,Quantity,TradePrice,Proceeds,IBCommission,CurrencyPrimary,TradeID
2024-01-15,AAPL,US0378331005,BUY,10,170.50,-1705.00,-1.00,USD,100001
2024-01-20,AAPL,US0378331005,SELL,-4,180.00,720.00,-1.00,USD,100002
2024-02-01,AAPL,US0378331005,DIV,0,0,12.40,0,USD,100003
`

func TestParseFlexExport(t *testing.T) {
	p := NewParser()
	result, err := p.Parse(flexExport)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 3)

	buy := result.Transactions[0]
	assert.Equal(t, models.TypeBuy, buy.Type)
	assert.Equal(t, "AAPL", buy.Symbol)
	assert.Equal(t, "US0378331005", buy.ISIN)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), buy.Date)
	assert.InDelta(t, 10.0, buy.Quantity, 1e-9)
	assert.InDelta(t, 170.50, buy.Price, 1e-9)
	assert.InDelta(t, 1705.00, buy.Amount, 1e-9)
	assert.Equal(t, "100001", buy.ExternalID)

	sell := result.Transactions[1]
	assert.Equal(t, models.TypeSell, sell.Type)
	assert.InDelta(t, 4.0, sell.Quantity, 1e-9)

	div := result.Transactions[2]
	assert.Equal(t, models.TypeDividend, div.Type)
	assert.InDelta(t, 12.40, div.Amount, 1e-9)
}

func TestParseCombinedDateTimeColumn(t *testing.T) {
	content := `Date/Time,Symbol,Buy/Sell,Quantity,TradePrice,CurrencyPrimary,TradeID
2024-01-15;09:30:00,AAPL,BUY,10,170.50,USD,100001
`
	p := NewParser()
	result, err := p.Parse(content)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), result.Transactions[0].Date)
}

func TestParseTypeFallbacks(t *testing.T) {
	// Unknown non-empty verbs become "other"; an empty type column falls back
	// to the quantity sign.
	content := `TradeDate,Symbol,Type,Quantity,TradePrice,TradeID
2024-01-15,AAPL,EXOTIC,10,170.50,1
2024-01-16,AAPL,,10,170.50,2
2024-01-17,AAPL,,-5,170.50,3
`
	p := NewParser()
	result, err := p.Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)
	assert.Equal(t, models.TypeOther, result.Transactions[0].Type)
	assert.Equal(t, models.TypeBuy, result.Transactions[1].Type)
	assert.Equal(t, models.TypeSell, result.Transactions[2].Type)
}

func TestParseRejectsZeroQuantityTrades(t *testing.T) {
	content := `TradeDate,Symbol,Buy/Sell,Quantity,TradePrice,TradeID
2024-01-15,AAPL,BUY,0,170.50,1
`
	p := NewParser()
	result, err := p.Parse(content)
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "quantity")
}

func TestParseRejectsMissingIdentity(t *testing.T) {
	content := `TradeDate,Symbol,ISIN,Buy/Sell,Quantity,TradePrice,TradeID
2024-01-15,,,BUY,10,170.50,1
`
	p := NewParser()
	result, err := p.Parse(content)
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "symbol")
}

func TestCanParse(t *testing.T) {
	p := NewParser()
	assert.True(t, p.CanParse("", "ibkr_activity.csv"))
	assert.True(t, p.CanParse("", "flex_query_2024.csv"))
	assert.True(t, p.CanParse("TradeDate,Symbol,TradeID\n", "export.csv"))
	assert.True(t, p.CanParse("Date,Symbol,Quantity,TradePrice\n", "export.csv"))
	assert.False(t, p.CanParse("Fecha,Producto,ISIN\n", "export.csv"))
}
