// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"

	"github.com/username/cartera/backend/src/models"
)

// Define common service errors
var (
	ErrParsingFailed    = errors.New("import parsing failed")
	ErrPayloadRejected  = errors.New("import payload rejected")
	ErrNothingExtracted = errors.New("no transactions or positions could be extracted")
)

// ImportRequest is one inbound payload plus its detection hints.
type ImportRequest struct {
	UserID   int64
	Payload  []byte
	Filename string // optional, used only as a detection hint
	Broker   string // optional explicit parser override, always wins over sniffing
}

// ImportOutcome carries whichever result shape the detected format produced:
// Result for broker imports, BankResult for bank-statement imports. Exactly
// one of the two is non-nil on success.
type ImportOutcome struct {
	Result     *models.ImportResult     `json:"result,omitempty"`
	BankResult *models.BankImportResult `json:"bank_result,omitempty"`
}

// ImportService runs the whole pipeline: detect, parse, resolve accounts and
// securities, insert transactions (skipping duplicates) and upsert the
// recomputed position snapshots.
type ImportService interface {
	Import(ctx context.Context, req ImportRequest) (*ImportOutcome, error)
}

// MetadataService resolves ISINs to instrument types via the external lookup
// collaborator. The returned map may be partial or empty on failure; callers
// fall back to keyword inference and never abort the import over it.
type MetadataService interface {
	LookupByISIN(ctx context.Context, isins []string) map[string]string
}
