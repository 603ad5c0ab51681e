// backend/src/model/model.go
package model

import "database/sql"

// Querier is satisfied by both *sql.DB and *sql.Tx so the same data access
// functions can run inside or outside the import transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
