package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/registry"
	"github.com/rumor-ml/finflow/internal/store"
)

// PositionImporter imports snapshot-style investment exports (brokerage,
// life insurance). Each import replaces the source's full position set.
type PositionImporter struct {
	registry  *registry.Registry
	sources   store.InvestmentSources
	positions store.Positions
	log       zerolog.Logger
}

// NewPositionImporter wires a snapshot importer.
func NewPositionImporter(reg *registry.Registry, sources store.InvestmentSources, positions store.Positions, log zerolog.Logger) *PositionImporter {
	return &PositionImporter{
		registry:  reg,
		sources:   sources,
		positions: positions,
		log:       log,
	}
}

// Import replaces the source's positions with the parsed snapshot:
// delete-all-then-insert, recreating each position individually so one bad
// row does not abort the batch.
func (imp *PositionImporter) Import(ctx context.Context, sourceID string, content []byte) *Result {
	source, err := imp.sources.FindInvestmentSource(ctx, sourceID)
	if err != nil {
		return fatal("Investment source not found: %s", sourceID)
	}

	invParser, err := imp.registry.Investment(source.ParserKey)
	if err != nil {
		return fatal("%v", err)
	}
	if invParser.Kind() != domain.KindSnapshot {
		return fatal("Parser %s is not a snapshot parser", source.ParserKey)
	}

	parsed, err := invParser.ParsePositions(content)
	if err != nil {
		return fatal("Failed to parse file: %v", err)
	}
	if len(parsed) == 0 {
		return fatal("No positions found in file")
	}

	if err := imp.positions.DeletePositionsBySourceID(ctx, source.ID); err != nil {
		return fatal("Failed to clear existing positions: %v", err)
	}

	result := &Result{}
	for _, row := range parsed {
		currency := row.Currency
		if currency == "" {
			currency = source.Currency
		}
		position := domain.InvestmentPosition{
			ID:              uuid.NewString(),
			SourceID:        source.ID,
			Symbol:          row.Symbol,
			ISIN:            row.ISIN,
			Quantity:        row.Quantity,
			AvgBuyPrice:     row.AvgBuyPrice,
			CurrentPrice:    row.CurrentPrice,
			CurrentValue:    row.CurrentValue,
			GainLoss:        row.GainLoss,
			GainLossPercent: row.GainLossPercent,
			Currency:        currency,
		}
		if err := imp.positions.SavePosition(ctx, position); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to save position %s: %v", row.Symbol, err))
			continue
		}
		result.Imported++
	}

	if err := imp.sources.MarkInvestmentSynced(ctx, source.ID, time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Warning: failed to update sync status: %v", err))
	}

	imp.log.Info().
		Str("source", source.Name).
		Int("imported", result.Imported).
		Int("errors", len(result.Errors)).
		Msg("snapshot import finished")

	return result
}
