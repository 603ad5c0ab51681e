// backend/src/parsers/ibkr/parser.go
package ibkr

import (
	"fmt"
	"math"
	"strings"

	"github.com/username/cartera/backend/src/models"
	"github.com/username/cartera/backend/src/parsers"
)

// Parser reads Interactive Brokers flex/activity CSV exports. The dialect has
// an explicit type column and a broker-native TradeID that serves as the
// external dedup id, so no fingerprint is needed for its rows.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) ID() string { return "ibkr" }

var headerSynonyms = map[string]string{
	"tradedate": "date", "date/time": "date", "date": "date", "reportdate": "date",
	"symbol": "symbol", "ticker": "symbol",
	"isin":        "isin",
	"description": "name", "securitydescription": "name",
	"buy/sell": "type", "type": "type", "transactiontype": "type",
	"quantity": "quantity", "shares": "quantity",
	"tradeprice": "price", "price": "price",
	"trademoney": "amount", "proceeds": "amount", "amount": "amount",
	"ibcommission": "fees", "commission": "fees", "comm/fee": "fees",
	"currencyprimary": "currency", "currency": "currency",
	"tradeid": "external_id", "transactionid": "external_id",
}

// typeMap folds the broker's verbs onto the canonical transaction types.
var typeMap = map[string]string{
	"buy":      models.TypeBuy,
	"bot":      models.TypeBuy,
	"sell":     models.TypeSell,
	"sld":      models.TypeSell,
	"div":      models.TypeDividend,
	"dividend": models.TypeDividend,
	"fee":      models.TypeFee,
	"ofee":     models.TypeFee,
	"split":    models.TypeSplit,
}

var delimiterPriority = []rune{',', ';', '\t', '|'}

// CanParse matches on the filename or on IB-specific header keywords.
func (p *Parser) CanParse(content, filename string) bool {
	lowerName := strings.ToLower(filename)
	if strings.Contains(lowerName, "ibkr") || strings.Contains(lowerName, "flex") {
		return true
	}
	header := strings.ToLower(parsers.FirstLine(content))
	if strings.Contains(header, "tradeid") || strings.Contains(header, "ibcommission") {
		return true
	}
	return strings.Contains(header, "symbol") &&
		strings.Contains(header, "quantity") &&
		strings.Contains(header, "tradeprice")
}

// Parse extracts transactions from an IBKR export, one error string per
// malformed row.
func (p *Parser) Parse(content string) (*models.ParseResult, error) {
	result := &models.ParseResult{Broker: p.ID()}

	delim := parsers.DetectDelimiter(content, delimiterPriority)
	records, err := parsers.ReadRecords(content, delim)
	if err != nil {
		return nil, fmt.Errorf("ibkr parser: failed to read CSV records: %w", err)
	}
	if len(records) < 2 {
		return result, nil
	}

	idx := parsers.HeaderIndex(records[0], headerSynonyms)

	for i, record := range records[1:] {
		rowNum := i + 2
		tx, rowErr := p.parseRow(record, idx)
		if rowErr != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rowNum, rowErr))
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

func (p *Parser) parseRow(record []string, idx map[string]int) (models.ParsedTransaction, string) {
	var tx models.ParsedTransaction

	rawDate := parsers.Field(record, idx, "date")
	// Flex exports use "YYYY-MM-DD;HH:MM:SS" in the combined column.
	if cut := strings.IndexAny(rawDate, "; "); cut > 0 {
		rawDate = rawDate[:cut]
	}
	date, ok := parsers.ParseDate(rawDate)
	if !ok {
		return tx, fmt.Sprintf("invalid date %q", rawDate)
	}

	symbol := strings.ToUpper(parsers.Field(record, idx, "symbol"))
	isin := parsers.NormalizeISIN(parsers.Field(record, idx, "isin"))
	if symbol == "" && isin == "" {
		return tx, "missing symbol and ISIN"
	}

	qty := parsers.ParseNumber(parsers.Field(record, idx, "quantity"))

	rawType := strings.ToLower(parsers.Field(record, idx, "type"))
	txType, known := typeMap[rawType]
	if !known {
		if rawType != "" {
			txType = models.TypeOther
		} else if qty < 0 {
			// No type column: fall back to the quantity sign convention.
			txType = models.TypeSell
		} else {
			txType = models.TypeBuy
		}
	}

	qty = math.Abs(qty)
	if (txType == models.TypeBuy || txType == models.TypeSell) && qty == 0 {
		return tx, "missing or zero quantity on trade row"
	}

	amount := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "amount")))
	price := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "price")))
	if price == 0 && qty > 0 {
		price = amount / qty
	}

	tx = models.ParsedTransaction{
		Date:       date,
		Type:       txType,
		Symbol:     symbol,
		ISIN:       isin,
		Name:       parsers.Field(record, idx, "name"),
		Quantity:   qty,
		Price:      price,
		Amount:     amount,
		Fees:       math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "fees"))),
		Currency:   strings.ToUpper(parsers.Field(record, idx, "currency")),
		ExternalID: parsers.Field(record, idx, "external_id"),
	}
	return tx, ""
}
