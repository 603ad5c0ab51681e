// backend/src/model/security.go
package model

import (
	"strings"
	"time"
)

// Security identifies an instrument, preferentially by ISIN with the symbol
// as fallback. Unique per ISIN when present, unique per (symbol, no ISIN)
// otherwise. Currency is immutable once created by convention; this is not
// enforced at the schema level.
type Security struct {
	ID        int64
	ISIN      string // empty when unknown
	Symbol    string
	Name      string
	Type      string // stock, etf, bond, fund, crypto
	Currency  string
	CreatedAt time.Time
}

// GetSecuritiesByISINs batch-fetches securities matching any of the given
// ISINs in a single IN query.
func GetSecuritiesByISINs(q Querier, isins []string) (map[string]Security, error) {
	out := make(map[string]Security)
	if len(isins) == 0 {
		return out, nil
	}
	query := `SELECT id, isin, symbol, name, type, currency, created_at FROM securities WHERE isin IN (?` +
		strings.Repeat(",?", len(isins)-1) + `)`
	args := make([]any, len(isins))
	for i, isin := range isins {
		args[i] = isin
	}
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Security
		if err := rows.Scan(&s.ID, &s.ISIN, &s.Symbol, &s.Name, &s.Type, &s.Currency, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[s.ISIN] = s
	}
	return out, rows.Err()
}

// GetSecuritiesBySymbols batch-fetches ISIN-less securities by symbol.
func GetSecuritiesBySymbols(q Querier, symbols []string) (map[string]Security, error) {
	out := make(map[string]Security)
	if len(symbols) == 0 {
		return out, nil
	}
	query := `SELECT id, isin, symbol, name, type, currency, created_at FROM securities WHERE isin = '' AND symbol IN (?` +
		strings.Repeat(",?", len(symbols)-1) + `)`
	args := make([]any, len(symbols))
	for i, sym := range symbols {
		args[i] = sym
	}
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Security
		if err := rows.Scan(&s.ID, &s.ISIN, &s.Symbol, &s.Name, &s.Type, &s.Currency, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[s.Symbol] = s
	}
	return out, rows.Err()
}

// GetSecuritiesByIDs batch-fetches securities by primary key, used when
// replaying the persisted ledger into positions.
func GetSecuritiesByIDs(q Querier, ids []int64) (map[int64]Security, error) {
	out := make(map[int64]Security)
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT id, isin, symbol, name, type, currency, created_at FROM securities WHERE id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Security
		if err := rows.Scan(&s.ID, &s.ISIN, &s.Symbol, &s.Name, &s.Type, &s.Currency, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// UpsertSecurityByISIN creates the security if its ISIN is not yet known and
// returns the persisted row. The conflict path handles races between
// concurrent imports creating the same instrument.
func UpsertSecurityByISIN(q Querier, s Security) (*Security, error) {
	_, err := q.Exec(`
		INSERT INTO securities (isin, symbol, name, type, currency)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(isin) WHERE isin != '' DO NOTHING`,
		s.ISIN, s.Symbol, s.Name, s.Type, s.Currency,
	)
	if err != nil {
		return nil, err
	}
	var out Security
	err = q.QueryRow(
		`SELECT id, isin, symbol, name, type, currency, created_at FROM securities WHERE isin = ?`,
		s.ISIN,
	).Scan(&out.ID, &out.ISIN, &out.Symbol, &out.Name, &out.Type, &out.Currency, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSecurity inserts an ISIN-less security keyed by symbol. On a unique
// violation (another import created it first) the existing row is refetched.
func CreateSecurity(q Querier, s Security) (*Security, error) {
	res, err := q.Exec(`
		INSERT INTO securities (isin, symbol, name, type, currency)
		VALUES ('', ?, ?, ?, ?)`,
		s.Symbol, s.Name, s.Type, s.Currency,
	)
	if err != nil {
		if !IsUniqueViolation(err) {
			return nil, err
		}
		existing, ferr := GetSecuritiesBySymbols(q, []string{s.Symbol})
		if ferr != nil {
			return nil, ferr
		}
		if got, ok := existing[s.Symbol]; ok {
			return &got, nil
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
// SQLite drivers surface these as plain errors, so this matches on the
// message the same way the insert paths do.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
