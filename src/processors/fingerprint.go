// backend/src/processors/fingerprint.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// fingerprintLen is the number of hex characters kept from the digest.
const fingerprintLen = 16

// Fingerprint derives a stable dedup key for a transaction that lacks a
// broker-supplied external id. Quantities and prices are formatted at fixed
// precision so binary floating-point noise cannot produce two different
// fingerprints for the same economic transaction. A collision IS the dedup
// signal: two imports producing the same fingerprint are the same transaction.
func Fingerprint(accountID, securityID int64, date time.Time, txType string, quantity, price, amount float64) string {
	input := strings.Join([]string{
		fmt.Sprintf("%d", accountID),
		fmt.Sprintf("%d", securityID),
		date.Format("2006-01-02"),
		txType,
		fmt.Sprintf("%.8f", quantity),
		fmt.Sprintf("%.8f", price),
		fmt.Sprintf("%.2f", amount),
	}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// BankFingerprint is the bank-statement variant: bank rows have no external
// id at all, so the key is built from the row's observable fields.
func BankFingerprint(bankAccountID int64, date time.Time, description string, amount, balance float64) string {
	input := strings.Join([]string{
		fmt.Sprintf("%d", bankAccountID),
		date.Format("2006-01-02"),
		description,
		fmt.Sprintf("%.2f", amount),
		fmt.Sprintf("%.2f", balance),
	}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
