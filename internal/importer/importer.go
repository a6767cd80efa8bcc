// Package importer drives the import state machine for bank, snapshot and
// crypto sources: parse, dedup, persist, mark-synced, collecting non-fatal
// errors along the way.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/dedup"
	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/registry"
	"github.com/rumor-ml/finflow/internal/store"
)

// Result reports one import attempt. A terminal failure leaves Imported and
// Skipped at zero with a single entry in Errors; row-level and advisory
// problems append entries without changing the counts' meaning.
type Result struct {
	Imported int
	Skipped  int
	Errors   []string
}

func fatal(format string, args ...any) *Result {
	return &Result{Errors: []string{fmt.Sprintf(format, args...)}}
}

// TransactionImporter imports bank export files for configured data
// sources.
type TransactionImporter struct {
	registry *registry.Registry
	sources  store.DataSources
	accounts store.Accounts
	txns     store.Transactions
	log      zerolog.Logger
}

// NewTransactionImporter wires a transaction importer.
func NewTransactionImporter(reg *registry.Registry, sources store.DataSources, accounts store.Accounts, txns store.Transactions, log zerolog.Logger) *TransactionImporter {
	return &TransactionImporter{
		registry: reg,
		sources:  sources,
		accounts: accounts,
		txns:     txns,
		log:      log,
	}
}

// Import runs one attempt for the given source and file content. The
// returned transactions are the rows actually persisted, handed to the
// categorization pipeline by the caller.
func (imp *TransactionImporter) Import(ctx context.Context, sourceID string, content []byte) (*Result, []domain.Transaction) {
	source, err := imp.sources.FindDataSource(ctx, sourceID)
	if err != nil {
		return fatal("Data source not found: %s", sourceID), nil
	}
	if source.LinkedAccountID == "" {
		return fatal("Data source %s has no linked account", source.Name), nil
	}

	account, err := imp.accounts.FindAccount(ctx, source.LinkedAccountID)
	if err != nil {
		return fatal("Linked account not found: %s", source.LinkedAccountID), nil
	}

	bankParser, err := imp.registry.Bank(source.ParserKey)
	if err != nil {
		return fatal("%v", err), nil
	}

	parsed, err := bankParser.Parse(content)
	if err != nil {
		return fatal("Failed to parse file: %v", err), nil
	}
	if len(parsed) == 0 {
		return fatal("No transactions found in file"), nil
	}

	history, err := imp.txns.FindByAccountID(ctx, account.ID)
	if err != nil {
		return fatal("Failed to load transaction history: %v", err), nil
	}

	index := dedup.IndexTransactions(history)
	accepted, skipped := index.FilterTransactions(parsed)

	result := &Result{Skipped: skipped}
	toSave := make([]domain.Transaction, 0, len(accepted))
	for i, row := range accepted {
		txn, err := domain.NewTransaction(uuid.NewString(), account.ID, row.Date, row.Amount, account.Currency, row.Description)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid transaction at row %d: %v", i+1, err))
			continue
		}
		txn.RawCategory = row.RawCategory
		toSave = append(toSave, *txn)
	}

	if len(toSave) > 0 {
		if err := imp.txns.SaveMany(ctx, toSave); err != nil {
			return fatal("Failed to save transactions: %v", err), nil
		}
	}
	result.Imported = len(toSave)

	// Mark-synced runs after persistence regardless of row-level errors;
	// its own failure only downgrades to a warning.
	if err := imp.sources.MarkSynced(ctx, source.ID, time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Warning: failed to update sync status: %v", err))
	}

	imp.log.Info().
		Str("source", source.Name).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("bank import finished")

	return result, toSave
}
