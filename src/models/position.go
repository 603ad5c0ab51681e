package models

// ParsedPosition is a holdings snapshot computed either from the broker's own
// statement (rare, when the export contains closing holdings directly) or by
// replaying the transaction ledger through the position processor.
type ParsedPosition struct {
	Symbol    string  `json:"symbol"`
	ISIN      string  `json:"isin,omitempty"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	AvgCost   float64 `json:"avg_cost"`
	TotalCost float64 `json:"total_cost"`
	Currency  string  `json:"currency"`
}

// ParseResult is what every parser hands back to the orchestrator.
// Errors are human-readable, one per malformed row, and never fatal for the
// batch. Bank-statement parsers fill BankTransactions instead of Transactions.
type ParseResult struct {
	Transactions     []ParsedTransaction     `json:"transactions"`
	Positions        []ParsedPosition        `json:"positions"`
	BankTransactions []ParsedBankTransaction `json:"bank_transactions,omitempty"`
	Errors           []string                `json:"errors"`
	Broker           string                  `json:"broker"`
}
