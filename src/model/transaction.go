// backend/src/model/transaction.go
package model

import (
	"time"
)

// Transaction is a persisted ledger row. Dates are stored date-only in
// YYYY-MM-DD form. Quantities, prices, amounts and fees are unsigned
// magnitudes; direction lives in Type.
type Transaction struct {
	ID          int64
	UserID      int64
	AccountID   int64
	SecurityID  int64
	Date        string // YYYY-MM-DD
	Type        string
	Quantity    float64
	Price       float64
	Amount      float64
	Fees        float64
	Currency    string
	ExternalID  string // broker-native id, empty when fingerprinted
	Fingerprint string // dedup key, empty when ExternalID present
	CreatedAt   time.Time
}

// InsertTransaction inserts one ledger row. A unique violation on
// (user_id, external_id) or (user_id, fingerprint) means the transaction was
// already imported; callers treat that as a skip, not an error.
func InsertTransaction(q Querier, tx Transaction) error {
	_, err := q.Exec(`
		INSERT INTO transactions
			(user_id, account_id, security_id, date, type, quantity, price, amount, fees, currency, external_id, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.AccountID, tx.SecurityID, tx.Date, tx.Type,
		tx.Quantity, tx.Price, tx.Amount, tx.Fees, tx.Currency,
		tx.ExternalID, tx.Fingerprint,
	)
	return err
}

// GetTransactionsByAccount returns the full persisted ledger for one account,
// ordered by date then insertion order, ready for position replay.
func GetTransactionsByAccount(q Querier, userID, accountID int64) ([]Transaction, error) {
	rows, err := q.Query(`
		SELECT id, user_id, account_id, security_id, date, type, quantity, price, amount, fees, currency, external_id, fingerprint, created_at
		FROM transactions
		WHERE user_id = ? AND account_id = ?
		ORDER BY date ASC, id ASC`,
		userID, accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.AccountID, &t.SecurityID, &t.Date, &t.Type,
			&t.Quantity, &t.Price, &t.Amount, &t.Fees, &t.Currency,
			&t.ExternalID, &t.Fingerprint, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// BankTransaction is a persisted bank-statement row. Amount keeps its sign.
type BankTransaction struct {
	ID            int64
	UserID        int64
	BankAccountID int64
	Date          string // YYYY-MM-DD
	Description   string
	Amount        float64
	Balance       float64
	Category      string
	Fingerprint   string
	CreatedAt     time.Time
}

// InsertBankTransaction inserts one bank row; unique violations on
// (user_id, fingerprint) are the dedup signal.
func InsertBankTransaction(q Querier, tx BankTransaction) error {
	_, err := q.Exec(`
		INSERT INTO bank_transactions
			(user_id, bank_account_id, date, description, amount, balance, category, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.BankAccountID, tx.Date, tx.Description,
		tx.Amount, tx.Balance, tx.Category, tx.Fingerprint,
	)
	return err
}
