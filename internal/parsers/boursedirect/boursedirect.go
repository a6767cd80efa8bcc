// Package boursedirect parses Bourse Direct portfolio statements: an XLSX
// sheet listing one security per row with quantity, average unit cost
// ("PRU (EUR)") and last price. Snapshot source: replace-all on import.
package boursedirect

import (
	"fmt"
	"strings"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/parser"
)

const (
	headerLabel    = "libellé"
	headerISIN     = "isin"
	headerQuantity = "quantité"
	headerPRU      = "pru"
	headerPrice    = "cours"
	headerValue    = "valorisation"
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared Bourse Direct parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "bourse-direct"
}

// Kind reports that Bourse Direct exports are position snapshots.
func (p *Parser) Kind() domain.SourceKind {
	return domain.KindSnapshot
}

// ParseTransactions is not supported for snapshot sources.
func (p *Parser) ParseTransactions(content []byte) ([]parser.ParsedInvestmentTransaction, error) {
	return nil, parser.ErrNotSupported
}

// ParsePositions extracts security positions from a Bourse Direct export.
func (p *Parser) ParsePositions(content []byte) ([]parser.ParsedPosition, error) {
	rows, err := parser.ReadFirstSheet(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read Bourse Direct export: %w", err)
	}

	headerRow := -1
	var cols columns
	for i, row := range rows {
		if c, ok := resolveColumns(row); ok {
			headerRow, cols = i, c
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("no Bourse Direct header row found (expected columns %q and %q)", headerQuantity, headerPRU)
	}

	positions := make([]parser.ParsedPosition, 0, len(rows)-headerRow)
	for _, row := range rows[headerRow+1:] {
		symbol := parser.Cell(row, cols.label)
		if symbol == "" {
			continue
		}

		quantity := parser.ParseAmount(parser.Cell(row, cols.quantity))
		if quantity == 0 {
			continue
		}

		avgBuyPrice := parser.ParseAmount(parser.Cell(row, cols.pru))
		price := parser.ParseAmount(parser.Cell(row, cols.price))

		currentValue := quantity * price
		if cols.value >= 0 {
			if v := parser.ParseAmount(parser.Cell(row, cols.value)); v != 0 {
				currentValue = v
			}
		}
		invested := quantity * avgBuyPrice
		gainLoss := currentValue - invested

		pos := parser.ParsedPosition{
			Symbol:       symbol,
			ISIN:         parser.Cell(row, cols.isin),
			Quantity:     quantity,
			AvgBuyPrice:  avgBuyPrice,
			CurrentPrice: price,
			CurrentValue: currentValue,
			GainLoss:     gainLoss,
			Currency:     "EUR",
		}
		if invested != 0 {
			pos.GainLossPercent = gainLoss / invested * 100
		}

		positions = append(positions, pos)
	}

	return positions, nil
}

type columns struct {
	label    int
	isin     int
	quantity int
	pru      int
	price    int
	value    int
}

func resolveColumns(row []string) (columns, bool) {
	cols := columns{label: 0, isin: -1, quantity: -1, pru: -1, price: -1, value: -1}
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case name == headerLabel:
			cols.label = i
		case name == headerISIN:
			cols.isin = i
		case name == headerQuantity:
			cols.quantity = i
		case strings.HasPrefix(name, headerPRU):
			cols.pru = i
		case strings.HasPrefix(name, headerPrice):
			cols.price = i
		case strings.HasPrefix(name, headerValue):
			cols.value = i
		}
	}
	return cols, cols.quantity >= 0 && cols.pru >= 0
}
