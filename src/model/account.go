// backend/src/model/account.go
package model

import "time"

// Account is a brokerage account, unique per (userID, broker).
// It is created lazily on the first import of that broker for that user.
type Account struct {
	ID        int64
	UserID    int64
	Broker    string
	CreatedAt time.Time
}

// BankAccount is the bank-statement counterpart, unique per (userID, bankName).
type BankAccount struct {
	ID        int64
	UserID    int64
	BankName  string
	CreatedAt time.Time
}

// UpsertAccount creates the account for (userID, broker) if it does not exist
// and returns the row either way. The ON CONFLICT no-op makes concurrent
// imports for the same user+broker converge on a single row.
func UpsertAccount(q Querier, userID int64, broker string) (*Account, error) {
	_, err := q.Exec(`
		INSERT INTO accounts (user_id, broker)
		VALUES (?, ?)
		ON CONFLICT(user_id, broker) DO NOTHING`,
		userID, broker,
	)
	if err != nil {
		return nil, err
	}
	var a Account
	err = q.QueryRow(
		`SELECT id, user_id, broker, created_at FROM accounts WHERE user_id = ? AND broker = ?`,
		userID, broker,
	).Scan(&a.ID, &a.UserID, &a.Broker, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertBankAccount mirrors UpsertAccount for bank statements.
func UpsertBankAccount(q Querier, userID int64, bankName string) (*BankAccount, error) {
	_, err := q.Exec(`
		INSERT INTO bank_accounts (user_id, bank_name)
		VALUES (?, ?)
		ON CONFLICT(user_id, bank_name) DO NOTHING`,
		userID, bankName,
	)
	if err != nil {
		return nil, err
	}
	var a BankAccount
	err = q.QueryRow(
		`SELECT id, user_id, bank_name, created_at FROM bank_accounts WHERE user_id = ? AND bank_name = ?`,
		userID, bankName,
	).Scan(&a.ID, &a.UserID, &a.BankName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
