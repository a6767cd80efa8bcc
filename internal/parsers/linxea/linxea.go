// Package linxea parses Linxea life-insurance statements: an XLSX sheet
// listing one fund per row with unit counts, last quotation and average
// unit cost ("PRU"). This is a snapshot source: every export carries the
// full position list.
package linxea

import (
	"fmt"
	"strings"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/parser"
)

// Header labels of the Linxea export, matched case-insensitively.
const (
	headerSupport   = "support"
	headerISIN      = "isin"
	headerQuantity  = "nbre de parts"
	headerLastQuote = "dernière cotation"
	headerPRU       = "pru"
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared Linxea parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "linxea"
}

// Kind reports that Linxea exports are position snapshots.
func (p *Parser) Kind() domain.SourceKind {
	return domain.KindSnapshot
}

// ParseTransactions is not supported for snapshot sources.
func (p *Parser) ParseTransactions(content []byte) ([]parser.ParsedInvestmentTransaction, error) {
	return nil, parser.ErrNotSupported
}

// ParsePositions extracts fund positions from a Linxea XLSX export. Rows
// before the header row and rows missing a fund name or unit count are
// skipped silently.
func (p *Parser) ParsePositions(content []byte) ([]parser.ParsedPosition, error) {
	rows, err := parser.ReadFirstSheet(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read Linxea export: %w", err)
	}

	headerRow, cols := locateHeader(rows)
	if headerRow < 0 {
		return nil, fmt.Errorf("no Linxea header row found (expected columns %q and %q)", headerQuantity, headerLastQuote)
	}

	positions := make([]parser.ParsedPosition, 0, len(rows)-headerRow)
	for _, row := range rows[headerRow+1:] {
		symbol := parser.Cell(row, cols.support)
		if symbol == "" {
			continue
		}

		quantity := parser.ParseAmount(parser.Cell(row, cols.quantity))
		if quantity == 0 {
			// Footer/summary rows carry text in the fund column but no
			// unit count.
			continue
		}

		lastQuote := parser.ParseAmount(parser.Cell(row, cols.lastQuote))
		avgBuyPrice := parser.ParseAmount(parser.Cell(row, cols.pru))
		currentValue := quantity * lastQuote
		invested := quantity * avgBuyPrice
		gainLoss := currentValue - invested

		pos := parser.ParsedPosition{
			Symbol:       symbol,
			ISIN:         parser.Cell(row, cols.isin),
			Quantity:     quantity,
			AvgBuyPrice:  avgBuyPrice,
			CurrentPrice: lastQuote,
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
	support   int
	isin      int
	quantity  int
	lastQuote int
	pru       int
}

// locateHeader finds the header row and resolves column indexes. Linxea
// prepends a contract summary block above the table, so the header is not
// necessarily the first row.
func locateHeader(rows [][]string) (int, columns) {
	for i, row := range rows {
		idx := parser.HeaderIndex(row)
		quantity, okQty := idx[headerQuantity]
		lastQuote, okQuote := idx[headerLastQuote]
		if !okQty || !okQuote {
			continue
		}

		cols := columns{
			support:   columnOr(idx, headerSupport, 0),
			isin:      columnOr(idx, headerISIN, -1),
			quantity:  quantity,
			lastQuote: lastQuote,
			pru:       pruColumn(row),
		}
		return i, cols
	}
	return -1, columns{}
}

// pruColumn matches the PRU column by prefix because exports label it with
// the currency, e.g. "PRU (EUR)".
func pruColumn(row []string) int {
	for i, cell := range row {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(cell)), headerPRU) {
			return i
		}
	}
	return -1
}

func columnOr(idx map[string]int, name string, fallback int) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return fallback
}
