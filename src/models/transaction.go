package models

import "time"

// Transaction types recognized across all broker parsers.
const (
	TypeBuy      = "buy"
	TypeSell     = "sell"
	TypeDividend = "dividend"
	TypeFee      = "fee"
	TypeSplit    = "split"
	TypeOther    = "other"
)

// ParsedTransaction is the unified, intermediate representation of an
// instrument transaction. Each parser populates as many fields as possible
// directly from the source file. Quantity, price, amount and fees are
// unsigned magnitudes; direction is carried by Type, never by sign.
type ParsedTransaction struct {
	Date       time.Time `json:"date"`
	Type       string    `json:"type"` // buy, sell, dividend, fee, split, other
	Symbol     string    `json:"symbol"`
	ISIN       string    `json:"isin,omitempty"`
	Name       string    `json:"name"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	Fees       float64   `json:"fees"`
	Currency   string    `json:"currency"`
	ExternalID string    `json:"external_id,omitempty"` // broker-native unique id, if any
}

// ParsedBankTransaction is a single row from a bank statement export.
// Unlike instrument transactions the amount is signed: positive is a credit,
// negative a debit.
type ParsedBankTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Balance     float64   `json:"balance"`
	Category    string    `json:"category,omitempty"`
}
