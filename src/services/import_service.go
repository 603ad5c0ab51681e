// backend/src/services/import_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/cartera/backend/src/config"
	"github.com/username/cartera/backend/src/database"
	"github.com/username/cartera/backend/src/logger"
	"github.com/username/cartera/backend/src/model"
	"github.com/username/cartera/backend/src/models"
	"github.com/username/cartera/backend/src/parsers"
	"github.com/username/cartera/backend/src/processors"
	"github.com/username/cartera/backend/src/security/validation"
)

type importServiceImpl struct {
	registry          *parsers.Registry
	positionProcessor *processors.PositionProcessor
	metadataService   MetadataService
}

func NewImportService(registry *parsers.Registry, metadataService MetadataService) ImportService {
	return &importServiceImpl{
		registry:          registry,
		positionProcessor: processors.NewPositionProcessor(),
		metadataService:   metadataService,
	}
}

// Import runs the full pipeline for one payload. Parsing and the external
// metadata lookup happen before any database transaction is opened; the
// persistence phase runs inside a single transaction bounded by the
// configured wait and timeout budgets.
func (s *importServiceImpl) Import(ctx context.Context, req ImportRequest) (*ImportOutcome, error) {
	importID := uuid.NewString()
	startTime := time.Now()
	logger.L.Info("Import START", "importID", importID, "userID", req.UserID, "brokerHint", req.Broker, "filename", req.Filename)

	if int64(len(req.Payload)) > config.Cfg.MaxImportSizeBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrPayloadRejected, config.Cfg.MaxImportSizeBytes)
	}
	if _, err := validation.ValidatePayload(req.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadRejected, err)
	}

	content := string(req.Payload)
	parser, err := s.registry.Resolve(req.Broker, content, req.Filename)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	if len(parsed.BankTransactions) > 0 {
		bankResult, err := s.importBank(ctx, importID, req.UserID, parsed)
		if err != nil {
			return nil, err
		}
		logger.L.Info("Import END (bank)", "importID", importID, "userID", req.UserID, "duration", time.Since(startTime))
		return &ImportOutcome{BankResult: bankResult}, nil
	}

	if len(parsed.Transactions) == 0 && len(parsed.Positions) == 0 {
		return nil, fmt.Errorf("%w: supported brokers are %s",
			ErrNothingExtracted, strings.Join(s.registry.Supported(), ", "))
	}

	sanitizeParsed(parsed)
	validateParsed(parsed)

	// External lookup stays outside the DB transaction: network calls must
	// never hold a DB lock.
	isinTypes := s.metadataService.LookupByISIN(ctx, distinctISINs(parsed))

	result, err := s.persist(ctx, importID, req.UserID, parsed, isinTypes)
	if err != nil {
		return nil, err
	}

	logger.L.Info("Import END", "importID", importID, "userID", req.UserID,
		"transactionsImported", result.TransactionsImported, "duration", time.Since(startTime))
	return &ImportOutcome{Result: result}, nil
}

func (s *importServiceImpl) persist(ctx context.Context, importID string, userID int64, parsed *models.ParseResult, isinTypes map[string]string) (*models.ImportResult, error) {
	// One context bounds both the wait to begin and the transaction itself;
	// cancellation rolls the transaction back.
	txCtx, cancel := context.WithTimeout(ctx, config.Cfg.TxMaxWait+config.Cfg.TxTimeout)
	defer cancel()

	dbTx, err := database.DB.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	account, err := model.UpsertAccount(dbTx, userID, parsed.Broker)
	if err != nil {
		return nil, fmt.Errorf("error upserting account: %w", err)
	}

	securities, created, err := s.resolveSecurities(dbTx, parsed, isinTypes)
	if err != nil {
		return nil, err
	}

	imported := 0
	for _, tx := range parsed.Transactions {
		sec, ok := lookupSecurity(securities, tx.ISIN, tx.Symbol)
		if !ok {
			parsed.Errors = append(parsed.Errors,
				fmt.Sprintf("no security resolved for %s", securityKey(tx.ISIN, tx.Symbol)))
			continue
		}

		row := model.Transaction{
			UserID:     userID,
			AccountID:  account.ID,
			SecurityID: sec.ID,
			Date:       tx.Date.Format("2006-01-02"),
			Type:       tx.Type,
			Quantity:   tx.Quantity,
			Price:      tx.Price,
			Amount:     tx.Amount,
			Fees:       tx.Fees,
			Currency:   tx.Currency,
			ExternalID: tx.ExternalID,
		}
		if row.ExternalID == "" {
			row.Fingerprint = processors.Fingerprint(account.ID, sec.ID, tx.Date, tx.Type, tx.Quantity, tx.Price, tx.Amount)
		}

		if err := model.InsertTransaction(dbTx, row); err != nil {
			if model.IsUniqueViolation(err) {
				logger.L.Debug("Skipping duplicate transaction", "importID", importID, "fingerprint", row.Fingerprint, "externalID", row.ExternalID)
				continue
			}
			return nil, fmt.Errorf("error inserting transaction (date %s): %w", row.Date, err)
		}
		imported++
	}

	posCreated, posUpdated, err := s.rebuildPositions(dbTx, userID, account.ID, parsed, securities)
	if err != nil {
		return nil, err
	}

	if err := model.RecordImport(dbTx, importID, userID, parsed.Broker, imported, len(parsed.Errors)); err != nil {
		return nil, fmt.Errorf("failed to record import in history: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing import transaction: %w", err)
	}

	return &models.ImportResult{
		// Majority-imported heuristic: partial success is expected and
		// reported, not treated as failure.
		Success:              len(parsed.Errors) < len(parsed.Transactions),
		ImportID:             importID,
		Broker:               parsed.Broker,
		AccountID:            account.ID,
		TransactionsImported: imported,
		PositionsCreated:     posCreated,
		PositionsUpdated:     posUpdated,
		SecuritiesCreated:    created,
		Errors:               append([]string{}, parsed.Errors...),
	}, nil
}

// resolveSecurities batch-fetches the batch's securities in at most two
// queries and creates the missing ones, typed from the external lookup when
// available and keyword inference otherwise.
func (s *importServiceImpl) resolveSecurities(q model.Querier, parsed *models.ParseResult, isinTypes map[string]string) (map[string]model.Security, int, error) {
	type candidate struct {
		isin     string
		symbol   string
		name     string
		currency string
	}
	candidates := make(map[string]candidate)
	add := func(isin, symbol, name, currency string) {
		key := securityKey(isin, symbol)
		if key == "" {
			return
		}
		if existing, ok := candidates[key]; !ok || existing.name == "" {
			candidates[key] = candidate{isin: isin, symbol: symbol, name: name, currency: currency}
		}
	}
	for _, tx := range parsed.Transactions {
		add(tx.ISIN, tx.Symbol, tx.Name, tx.Currency)
	}
	for _, pos := range parsed.Positions {
		add(pos.ISIN, pos.Symbol, pos.Name, pos.Currency)
	}

	var isins, symbols []string
	for _, c := range candidates {
		if c.isin != "" {
			isins = append(isins, c.isin)
		} else {
			symbols = append(symbols, c.symbol)
		}
	}

	byISIN, err := model.GetSecuritiesByISINs(q, isins)
	if err != nil {
		return nil, 0, fmt.Errorf("error fetching securities by ISIN: %w", err)
	}
	bySymbol, err := model.GetSecuritiesBySymbols(q, symbols)
	if err != nil {
		return nil, 0, fmt.Errorf("error fetching securities by symbol: %w", err)
	}

	out := make(map[string]model.Security)
	for isin, sec := range byISIN {
		out[isin] = sec
	}
	for symbol, sec := range bySymbol {
		out[symbol] = sec
	}

	created := 0
	for key, c := range candidates {
		if _, ok := out[key]; ok {
			continue
		}
		secType, ok := isinTypes[c.isin]
		if !ok {
			secType = inferSecurityType(c.name)
		}
		sec := model.Security{
			ISIN:     c.isin,
			Symbol:   c.symbol,
			Name:     c.name,
			Type:     secType,
			Currency: c.currency,
		}
		var persisted *model.Security
		if c.isin != "" {
			persisted, err = model.UpsertSecurityByISIN(q, sec)
		} else {
			persisted, err = model.CreateSecurity(q, sec)
		}
		if err != nil {
			return nil, created, fmt.Errorf("error creating security %s: %w", key, err)
		}
		out[key] = *persisted
		created++
	}
	return out, created, nil
}

// rebuildPositions recomputes the full holdings snapshot for the securities
// affected by this batch by replaying the whole persisted ledger of the
// account. This is an idempotent derived-state rebuild, never an increment.
func (s *importServiceImpl) rebuildPositions(q model.Querier, userID, accountID int64, parsed *models.ParseResult, batchSecurities map[string]model.Security) (int, int, error) {
	ledger, err := model.GetTransactionsByAccount(q, userID, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("error fetching account ledger: %w", err)
	}

	secIDs := make([]int64, 0, len(ledger))
	seenIDs := make(map[int64]bool)
	for _, row := range ledger {
		if !seenIDs[row.SecurityID] {
			seenIDs[row.SecurityID] = true
			secIDs = append(secIDs, row.SecurityID)
		}
	}
	ledgerSecurities, err := model.GetSecuritiesByIDs(q, secIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("error fetching ledger securities: %w", err)
	}

	replay := make([]models.ParsedTransaction, 0, len(ledger))
	for _, row := range ledger {
		sec := ledgerSecurities[row.SecurityID]
		date, ok := parsers.ParseDate(row.Date)
		if !ok {
			continue
		}
		replay = append(replay, models.ParsedTransaction{
			Date:     date,
			Type:     row.Type,
			Symbol:   sec.Symbol,
			ISIN:     sec.ISIN,
			Name:     sec.Name,
			Quantity: row.Quantity,
			Price:    row.Price,
			Amount:   row.Amount,
			Fees:     row.Fees,
			Currency: row.Currency,
		})
	}

	reconstructed := s.positionProcessor.Process(replay)
	byKey := make(map[string]models.ParsedPosition, len(reconstructed))
	for _, pos := range reconstructed {
		byKey[securityKey(pos.ISIN, pos.Symbol)] = pos
	}

	// Broker-supplied snapshots (the rare direct-holdings path) fill in
	// securities the ledger knows nothing about.
	for _, pos := range parsed.Positions {
		key := securityKey(pos.ISIN, pos.Symbol)
		if _, ok := byKey[key]; !ok {
			byKey[key] = pos
		}
	}

	// Affected securities: everything touched by this batch plus everything
	// in the replayed ledger.
	affected := make(map[int64]model.Security)
	for _, sec := range batchSecurities {
		affected[sec.ID] = sec
	}
	for _, sec := range ledgerSecurities {
		affected[sec.ID] = sec
	}

	affectedIDs := make([]int64, 0, len(affected))
	for id := range affected {
		affectedIDs = append(affectedIDs, id)
	}
	existing, err := model.GetPositionsBySecurityIDs(q, userID, accountID, affectedIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("error fetching existing positions: %w", err)
	}

	createdCount, updatedCount := 0, 0
	for id, sec := range affected {
		pos, held := byKey[securityKey(sec.ISIN, sec.Symbol)]
		_, hasRow := existing[id]

		if !held {
			if hasRow {
				if err := model.DeletePosition(q, userID, accountID, id); err != nil {
					return createdCount, updatedCount, fmt.Errorf("error deleting closed position: %w", err)
				}
			}
			continue
		}

		err := model.UpsertPosition(q, model.Position{
			UserID:     userID,
			AccountID:  accountID,
			SecurityID: id,
			Quantity:   pos.Quantity,
			AvgCost:    pos.AvgCost,
			TotalCost:  pos.TotalCost,
			Currency:   pos.Currency,
		})
		if err != nil {
			return createdCount, updatedCount, fmt.Errorf("error upserting position: %w", err)
		}
		if hasRow {
			updatedCount++
		} else {
			createdCount++
		}
	}
	return createdCount, updatedCount, nil
}

func (s *importServiceImpl) importBank(ctx context.Context, importID string, userID int64, parsed *models.ParseResult) (*models.BankImportResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, config.Cfg.TxMaxWait+config.Cfg.TxTimeout)
	defer cancel()

	dbTx, err := database.DB.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	account, err := model.UpsertBankAccount(dbTx, userID, parsed.Broker)
	if err != nil {
		return nil, fmt.Errorf("error upserting bank account: %w", err)
	}

	imported := 0
	for _, tx := range parsed.BankTransactions {
		if err := validation.ValidateStringMaxLength(tx.Description, validation.MaxDescriptionLength, "description"); err != nil {
			parsed.Errors = append(parsed.Errors, fmt.Sprintf("%s: %v", tx.Date.Format("2006-01-02"), err))
			continue
		}
		row := model.BankTransaction{
			UserID:        userID,
			BankAccountID: account.ID,
			Date:          tx.Date.Format("2006-01-02"),
			Description:   validation.SanitizeText(tx.Description),
			Amount:        tx.Amount,
			Balance:       tx.Balance,
			Category:      tx.Category,
			Fingerprint:   processors.BankFingerprint(account.ID, tx.Date, tx.Description, tx.Amount, tx.Balance),
		}
		if err := model.InsertBankTransaction(dbTx, row); err != nil {
			if model.IsUniqueViolation(err) {
				logger.L.Debug("Skipping duplicate bank transaction", "importID", importID, "fingerprint", row.Fingerprint)
				continue
			}
			return nil, fmt.Errorf("error inserting bank transaction (date %s): %w", row.Date, err)
		}
		imported++
	}

	if err := model.RecordImport(dbTx, importID, userID, parsed.Broker, imported, len(parsed.Errors)); err != nil {
		return nil, fmt.Errorf("failed to record import in history: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing bank import transaction: %w", err)
	}

	return &models.BankImportResult{
		Success:              len(parsed.Errors) < len(parsed.BankTransactions),
		ImportID:             importID,
		BankName:             parsed.Broker,
		BankAccountID:        account.ID,
		TransactionsImported: imported,
		Errors:               append([]string{}, parsed.Errors...),
	}, nil
}

// sanitizeParsed strips HTML and formula-injection triggers from the display
// strings a broker export can smuggle in.
func sanitizeParsed(parsed *models.ParseResult) {
	for i := range parsed.Transactions {
		parsed.Transactions[i].Name = validation.SanitizeForFormulaInjection(
			validation.SanitizeText(parsed.Transactions[i].Name))
	}
	for i := range parsed.Positions {
		parsed.Positions[i].Name = validation.SanitizeForFormulaInjection(
			validation.SanitizeText(parsed.Positions[i].Name))
	}
}

// validateParsed enforces field bounds on parsed rows. A row failing
// validation becomes one error string and is dropped, exactly like a
// parse-time row error.
func validateParsed(parsed *models.ParseResult) {
	keptTxs := parsed.Transactions[:0]
	for _, tx := range parsed.Transactions {
		if err := validateRowFields(tx.ISIN, tx.Symbol, tx.Name, tx.Currency); err != nil {
			parsed.Errors = append(parsed.Errors, err.Error())
			continue
		}
		keptTxs = append(keptTxs, tx)
	}
	parsed.Transactions = keptTxs

	keptPos := parsed.Positions[:0]
	for _, pos := range parsed.Positions {
		if err := validateRowFields(pos.ISIN, pos.Symbol, pos.Name, pos.Currency); err != nil {
			parsed.Errors = append(parsed.Errors, err.Error())
			continue
		}
		keptPos = append(keptPos, pos)
	}
	parsed.Positions = keptPos
}

func validateRowFields(isin, symbol, name, currency string) error {
	key := securityKey(isin, symbol)
	if err := validation.ValidateStringMaxLength(isin, validation.MaxISINLength, "isin"); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	if err := validation.ValidateStringMaxLength(name, validation.MaxProductNameLength, "name"); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	if err := validation.ValidateCurrencyCode(currency); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	return nil
}

func distinctISINs(parsed *models.ParseResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range parsed.Transactions {
		if tx.ISIN != "" && !seen[tx.ISIN] {
			seen[tx.ISIN] = true
			out = append(out, tx.ISIN)
		}
	}
	for _, pos := range parsed.Positions {
		if pos.ISIN != "" && !seen[pos.ISIN] {
			seen[pos.ISIN] = true
			out = append(out, pos.ISIN)
		}
	}
	return out
}

// securityKey is the instrument identity used across the batch:
// ISIN when present, symbol otherwise.
func securityKey(isin, symbol string) string {
	if isin != "" {
		return isin
	}
	return symbol
}

func lookupSecurity(securities map[string]model.Security, isin, symbol string) (model.Security, bool) {
	sec, ok := securities[securityKey(isin, symbol)]
	return sec, ok
}

// typeKeywords maps instrument-name keywords to a type; rules are tried in
// order and the first hit wins, defaulting to stock.
var typeKeywords = []struct {
	secType  string
	keywords []string
}{
	{"etf", []string{"etf", "ishares", "vanguard", "spdr"}},
	{"bond", []string{"bond", "treasury", "gilt"}},
	{"fund", []string{"fund", "fonds", "sicav"}},
	{"crypto", []string{"bitcoin", "ethereum", "crypto"}},
}

// inferSecurityType is the fallback when the external metadata lookup had no
// answer for an instrument.
func inferSecurityType(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range typeKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.secType
			}
		}
	}
	return "stock"
}
