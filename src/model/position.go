// backend/src/model/position.go
package model

import (
	"strings"
	"time"
)

// Position is derived state: one row per (userID, accountID, securityID).
// Quantity, avgCost and totalCost are recomputed from the ledger on every
// import and upserted as a full snapshot, never accumulated by diff.
type Position struct {
	ID         int64
	UserID     int64
	AccountID  int64
	SecurityID int64
	Quantity   float64
	AvgCost    float64
	TotalCost  float64
	Currency   string
	UpdatedAt  time.Time
}

// GetPositionsBySecurityIDs batch-checks which of the given securities
// already have a position row for this account.
func GetPositionsBySecurityIDs(q Querier, userID, accountID int64, securityIDs []int64) (map[int64]Position, error) {
	out := make(map[int64]Position)
	if len(securityIDs) == 0 {
		return out, nil
	}
	query := `SELECT id, user_id, account_id, security_id, quantity, avg_cost, total_cost, currency, updated_at
		FROM positions
		WHERE user_id = ? AND account_id = ? AND security_id IN (?` +
		strings.Repeat(",?", len(securityIDs)-1) + `)`
	args := make([]any, 0, len(securityIDs)+2)
	args = append(args, userID, accountID)
	for _, id := range securityIDs {
		args = append(args, id)
	}
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.AccountID, &p.SecurityID, &p.Quantity, &p.AvgCost, &p.TotalCost, &p.Currency, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.SecurityID] = p
	}
	return out, rows.Err()
}

// UpsertPosition writes the full recalculated snapshot for one security.
func UpsertPosition(q Querier, p Position) error {
	_, err := q.Exec(`
		INSERT INTO positions (user_id, account_id, security_id, quantity, avg_cost, total_cost, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, account_id, security_id) DO UPDATE SET
			quantity = excluded.quantity,
			avg_cost = excluded.avg_cost,
			total_cost = excluded.total_cost,
			currency = excluded.currency,
			updated_at = CURRENT_TIMESTAMP`,
		p.UserID, p.AccountID, p.SecurityID, p.Quantity, p.AvgCost, p.TotalCost, p.Currency,
	)
	return err
}

// DeletePosition removes a fully-closed holding. Positions never go negative;
// once the reconstructed quantity reaches zero the row is deleted.
func DeletePosition(q Querier, userID, accountID, securityID int64) error {
	_, err := q.Exec(
		`DELETE FROM positions WHERE user_id = ? AND account_id = ? AND security_id = ?`,
		userID, accountID, securityID,
	)
	return err
}
