package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/costbasis"
	"github.com/rumor-ml/finflow/internal/dedup"
	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/registry"
	"github.com/rumor-ml/finflow/internal/store"
)

// QuoteFetcher is the narrow contract to the price service.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbols []string, currency string) (map[string]float64, error)
}

// CryptoImporter imports ledger-style crypto exports. The transaction
// ledger is authoritative; positions are recomputed from the complete
// history on every import.
type CryptoImporter struct {
	registry  *registry.Registry
	sources   store.InvestmentSources
	ledger    store.InvestmentLedger
	positions store.Positions
	quotes    QuoteFetcher
	log       zerolog.Logger
}

// NewCryptoImporter wires a crypto ledger importer.
func NewCryptoImporter(reg *registry.Registry, sources store.InvestmentSources, ledger store.InvestmentLedger, positions store.Positions, quotes QuoteFetcher, log zerolog.Logger) *CryptoImporter {
	return &CryptoImporter{
		registry:  reg,
		sources:   sources,
		ledger:    ledger,
		positions: positions,
		quotes:    quotes,
		log:       log,
	}
}

// Import appends the file's new ledger rows, then recomputes the source's
// positions from the complete history. Position recomputation failures are
// advisory: the ledger import already succeeded.
func (imp *CryptoImporter) Import(ctx context.Context, sourceID string, content []byte) *Result {
	source, err := imp.sources.FindInvestmentSource(ctx, sourceID)
	if err != nil {
		return fatal("Investment source not found: %s", sourceID)
	}

	invParser, err := imp.registry.Investment(source.ParserKey)
	if err != nil {
		return fatal("%v", err)
	}
	if invParser.Kind() != domain.KindLedger {
		return fatal("Parser %s is not a ledger parser", source.ParserKey)
	}

	parsed, err := invParser.ParseTransactions(content)
	if err != nil {
		return fatal("Failed to parse file: %v", err)
	}
	if len(parsed) == 0 {
		return fatal("No transactions found in file")
	}

	history, err := imp.ledger.FindTransactionsBySourceID(ctx, source.ID)
	if err != nil {
		return fatal("Failed to load transaction history: %v", err)
	}

	index := dedup.IndexInvestmentTransactions(history)
	accepted, skipped := index.FilterInvestmentTransactions(parsed)

	result := &Result{Skipped: skipped}
	toSave := make([]domain.InvestmentTransaction, 0, len(accepted))
	for _, row := range accepted {
		toSave = append(toSave, domain.InvestmentTransaction{
			ID:           uuid.NewString(),
			SourceID:     source.ID,
			Date:         row.Date,
			Symbol:       row.Symbol,
			Type:         row.Type,
			Quantity:     row.Quantity,
			PricePerUnit: row.PricePerUnit,
			TotalAmount:  row.TotalAmount,
			Fee:          row.Fee,
		})
	}

	if len(toSave) > 0 {
		if err := imp.ledger.SaveInvestmentTransactions(ctx, toSave); err != nil {
			return fatal("Failed to save transactions: %v", err)
		}
	}
	result.Imported = len(toSave)

	if warnings := imp.recomputePositions(ctx, source); len(warnings) > 0 {
		result.Errors = append(result.Errors, warnings...)
	}

	if err := imp.sources.MarkInvestmentSynced(ctx, source.ID, time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Warning: failed to update sync status: %v", err))
	}

	imp.log.Info().
		Str("source", source.Name).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("crypto import finished")

	return result
}

// Refresh recomputes a ledger source's positions from its stored history
// with fresh prices, without importing anything. Used by the price sync
// CLI.
func (imp *CryptoImporter) Refresh(ctx context.Context, sourceID string) *Result {
	source, err := imp.sources.FindInvestmentSource(ctx, sourceID)
	if err != nil {
		return fatal("Investment source not found: %s", sourceID)
	}
	if source.Kind != domain.KindLedger {
		return fatal("Source %s is not a ledger source", source.Name)
	}

	result := &Result{}
	result.Errors = append(result.Errors, imp.recomputePositions(ctx, source)...)

	if err := imp.sources.MarkInvestmentSynced(ctx, source.ID, time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Warning: failed to update sync status: %v", err))
	}
	return result
}

// recomputePositions reloads the complete ledger, fetches prices in one
// batched call, and replaces the source's positions with the calculator's
// output. All failures are returned as advisory strings.
func (imp *CryptoImporter) recomputePositions(ctx context.Context, source *domain.InvestmentSource) []string {
	var warnings []string

	history, err := imp.ledger.FindTransactionsBySourceID(ctx, source.ID)
	if err != nil {
		return []string{fmt.Sprintf("Warning: position recalculation failed: %v", err)}
	}

	symbolSet := make(map[string]struct{})
	for _, txn := range history {
		symbolSet[txn.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(symbolSet))
	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	prices, err := imp.quotes.Fetch(ctx, symbols, source.Currency)
	if err != nil {
		// Missing prices degrade to 0; the calculation still runs.
		prices = map[string]float64{}
		warnings = append(warnings, fmt.Sprintf("Warning: price fetch failed, using 0 for all symbols: %v", err))
	}

	if err := imp.positions.DeletePositionsBySourceID(ctx, source.ID); err != nil {
		warnings = append(warnings, fmt.Sprintf("Warning: failed to clear existing positions: %v", err))
		return warnings
	}

	for _, position := range costbasis.Calculate(source.ID, history, prices, source.Currency) {
		if err := imp.positions.SavePosition(ctx, position); err != nil {
			warnings = append(warnings, fmt.Sprintf("Warning: failed to save position %s: %v", position.Symbol, err))
		}
	}

	return warnings
}
