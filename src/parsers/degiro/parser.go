// backend/src/parsers/degiro/parser.go
package degiro

import (
	"fmt"
	"math"
	"strings"

	"github.com/username/cartera/backend/src/models"
	"github.com/username/cartera/backend/src/parsers"
)

// Parser reads DeGiro transaction exports. The dialect has no type column:
// a negative quantity means a sell, a positive one a buy. Headers come in
// English, Spanish or German depending on the account locale.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) ID() string { return "degiro" }

// headerSynonyms folds the localized column names into canonical ones.
var headerSynonyms = map[string]string{
	// date
	"fecha": "date", "date": "date", "datum": "date",
	// product name
	"producto": "name", "product": "name", "produkt": "name",
	// isin
	"isin": "isin",
	// quantity
	"número": "quantity", "numero": "quantity", "cantidad": "quantity",
	"quantity": "quantity", "anzahl": "quantity",
	// unit price
	"precio": "price", "price": "price", "kurs": "price",
	"precio unitario": "price",
	// total value
	"valor local": "value", "valor": "value", "value": "value", "wert": "value",
	"local value": "value",
	// fees
	"costes de transacción": "fees", "costes de transaccion": "fees",
	"costes": "fees", "transaction and/or third": "fees", "fees": "fees",
	"gebühr": "fees", "gebuehr": "fees",
	// currency
	"divisa": "currency", "currency": "currency", "währung": "currency", "waehrung": "currency",
	// order id
	"id orden": "order_id", "order id": "order_id", "order-id": "order_id",
	"auftrags-id": "order_id",
}

var delimiterPriority = []rune{',', ';', '\t', '|'}

// CanParse matches on the filename or on the localized header keywords.
func (p *Parser) CanParse(content, filename string) bool {
	if strings.Contains(strings.ToLower(filename), "degiro") {
		return true
	}
	header := strings.ToLower(parsers.FirstLine(content))
	for _, kw := range []string{"producto", "produkt", "id orden", "auftrags-id"} {
		if strings.Contains(header, kw) {
			return true
		}
	}
	// English headers are generic, so require product+isin together.
	return strings.Contains(header, "product") && strings.Contains(header, "isin")
}

// Parse extracts transactions (or, for portfolio statements, positions) from
// a DeGiro export. Rows that cannot be read become one error string each.
func (p *Parser) Parse(content string) (*models.ParseResult, error) {
	result := &models.ParseResult{Broker: p.ID()}

	delim := parsers.DetectDelimiter(content, delimiterPriority)
	records, err := parsers.ReadRecords(content, delim)
	if err != nil {
		return nil, fmt.Errorf("degiro parser: failed to read CSV records: %w", err)
	}
	if len(records) < 2 {
		return result, nil
	}

	idx := parsers.HeaderIndex(records[0], headerSynonyms)

	// A portfolio statement lists closing holdings and has no date column.
	if _, hasDate := idx["date"]; !hasDate {
		p.parsePositions(records[1:], idx, result)
		return result, nil
	}

	for i, record := range records[1:] {
		rowNum := i + 2 // 1-based, counting the header
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
	date, ok := parsers.ParseDate(rawDate)
	if !ok {
		return tx, fmt.Sprintf("invalid date %q", rawDate)
	}

	isin := parsers.NormalizeISIN(parsers.Field(record, idx, "isin"))
	if isin == "" {
		return tx, "missing or malformed ISIN"
	}

	rawQty := parsers.Field(record, idx, "quantity")
	qty := parsers.ParseNumber(rawQty)
	if qty == 0 {
		return tx, fmt.Sprintf("missing or zero quantity %q", rawQty)
	}

	// No type column in this dialect: the quantity sign is the buy/sell signal.
	txType := models.TypeBuy
	if qty < 0 {
		txType = models.TypeSell
		qty = -qty
	}

	value := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "value")))
	price := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "price")))
	if price == 0 && qty > 0 {
		price = value / qty
	}

	tx = models.ParsedTransaction{
		Date:       date,
		Type:       txType,
		ISIN:       isin,
		Name:       parsers.Field(record, idx, "name"),
		Quantity:   qty,
		Price:      price,
		Amount:     value,
		Fees:       math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "fees"))),
		Currency:   strings.ToUpper(parsers.Field(record, idx, "currency")),
		ExternalID: parsers.Field(record, idx, "order_id"),
	}
	return tx, ""
}

// parsePositions handles the rare portfolio-statement variant where the
// broker reports closing holdings directly.
func (p *Parser) parsePositions(records [][]string, idx map[string]int, result *models.ParseResult) {
	for i, record := range records {
		rowNum := i + 2

		isin := parsers.NormalizeISIN(parsers.Field(record, idx, "isin"))
		if isin == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing or malformed ISIN", rowNum))
			continue
		}
		qty := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "quantity")))
		if qty == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing or zero quantity", rowNum))
			continue
		}
		totalCost := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "value")))
		avgCost := math.Abs(parsers.ParseNumber(parsers.Field(record, idx, "price")))
		if avgCost == 0 {
			avgCost = totalCost / qty
		}
		if totalCost == 0 {
			totalCost = avgCost * qty
		}

		result.Positions = append(result.Positions, models.ParsedPosition{
			ISIN:      isin,
			Name:      parsers.Field(record, idx, "name"),
			Quantity:  qty,
			AvgCost:   avgCost,
			TotalCost: totalCost,
			Currency:  strings.ToUpper(parsers.Field(record, idx, "currency")),
		})
	}
}
