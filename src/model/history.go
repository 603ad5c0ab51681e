// backend/src/model/history.go
package model

// RecordImport appends one row to imports_history for auditability.
func RecordImport(q Querier, importID string, userID int64, broker string, transactionCount, errorCount int) error {
	_, err := q.Exec(`
		INSERT INTO imports_history (import_id, user_id, broker, transaction_count, error_count)
		VALUES (?, ?, ?, ?, ?)`,
		importID, userID, broker, transactionCount, errorCount,
	)
	return err
}
