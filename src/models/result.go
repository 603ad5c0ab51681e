package models

// ImportResult summarizes a completed broker import.
// Success is a majority-imported heuristic: an import with some bad rows but
// mostly good ones is still a success, and the per-row errors are reported.
type ImportResult struct {
	Success              bool     `json:"success"`
	ImportID             string   `json:"import_id"`
	Broker               string   `json:"broker"`
	AccountID            int64    `json:"account_id"`
	TransactionsImported int      `json:"transactions_imported"`
	PositionsCreated     int      `json:"positions_created"`
	PositionsUpdated     int      `json:"positions_updated"`
	SecuritiesCreated    int      `json:"securities_created"`
	Errors               []string `json:"errors"`
}

// BankImportResult summarizes a completed bank-statement import.
type BankImportResult struct {
	Success              bool     `json:"success"`
	ImportID             string   `json:"import_id"`
	BankName             string   `json:"bank_name"`
	BankAccountID        int64    `json:"bank_account_id"`
	TransactionsImported int      `json:"transactions_imported"`
	Errors               []string `json:"errors"`
}
