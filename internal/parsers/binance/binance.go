// Package binance parses Binance transaction history exports: an XLSX sheet
// where amounts are written as "value asset" pairs such as "0.00235000 BTC"
// or "100.00 EUR". This is a ledger source: each export appends buy/sell
// rows and positions are derived from the full history.
package binance

import (
	"fmt"
	"strings"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/parser"
)

const (
	headerDate    = "date(utc)"
	headerType    = "type"
	headerSpend   = "spend amount"
	headerReceive = "receive amount"
	headerFee     = "fee"
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared Binance parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "binance"
}

// Kind reports that Binance exports are transaction ledgers.
func (p *Parser) Kind() domain.SourceKind {
	return domain.KindLedger
}

// ParsePositions is not supported: Binance positions are derived from the
// ledger, never imported directly.
func (p *Parser) ParsePositions(content []byte) ([]parser.ParsedPosition, error) {
	return nil, parser.ErrNotSupported
}

// ParseTransactions extracts buy/sell rows from a Binance export.
//
// For a buy the crypto side is the receive column and the fiat total the
// spend column; a sell is the mirror image. Rows with an unknown type or a
// missing date are skipped silently.
func (p *Parser) ParseTransactions(content []byte) ([]parser.ParsedInvestmentTransaction, error) {
	rows, err := parser.ReadFirstSheet(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read Binance export: %w", err)
	}

	headerRow := -1
	var cols columns
	for i, row := range rows {
		idx := parser.HeaderIndex(row)
		date, okDate := idx[headerDate]
		receive, okReceive := idx[headerReceive]
		if !okDate || !okReceive {
			continue
		}
		cols = columns{
			date:    date,
			typ:     columnOr(idx, headerType, -1),
			spend:   columnOr(idx, headerSpend, -1),
			receive: receive,
			fee:     columnOr(idx, headerFee, -1),
		}
		headerRow = i
		break
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("no Binance header row found (expected columns %q and %q)", headerDate, headerReceive)
	}

	transactions := make([]parser.ParsedInvestmentTransaction, 0, len(rows)-headerRow)
	for _, row := range rows[headerRow+1:] {
		date, err := parser.ParseDate(parser.Cell(row, cols.date))
		if err != nil {
			continue
		}

		txnType, ok := mapType(parser.Cell(row, cols.typ))
		if !ok {
			// Deposits, withdrawals, conversions between cryptos.
			continue
		}

		spendValue, spendAsset := splitAmount(parser.Cell(row, cols.spend))
		receiveValue, receiveAsset := splitAmount(parser.Cell(row, cols.receive))

		var quantity, totalAmount float64
		var symbol string
		if txnType == domain.InvestmentBuy {
			quantity, symbol = receiveValue, receiveAsset
			totalAmount = spendValue
		} else {
			quantity, symbol = spendValue, spendAsset
			totalAmount = receiveValue
		}
		if symbol == "" || quantity == 0 {
			continue
		}

		txn := parser.ParsedInvestmentTransaction{
			Date:        date,
			Symbol:      strings.ToUpper(symbol),
			Type:        txnType,
			Quantity:    quantity,
			TotalAmount: totalAmount,
		}
		if quantity != 0 {
			txn.PricePerUnit = totalAmount / quantity
		}
		if cols.fee >= 0 {
			feeValue, _ := splitAmount(parser.Cell(row, cols.fee))
			txn.Fee = feeValue
		}

		transactions = append(transactions, txn)
	}

	return transactions, nil
}

type columns struct {
	date    int
	typ     int
	spend   int
	receive int
	fee     int
}

func columnOr(idx map[string]int, name string, fallback int) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return fallback
}

// splitAmount splits an "amount asset" cell like "0.00235000 BTC" into its
// numeric value and asset code. A cell without an asset suffix parses as a
// bare number with an empty asset.
func splitAmount(cell string) (float64, string) {
	fields := strings.Fields(cell)
	switch len(fields) {
	case 0:
		return 0, ""
	case 1:
		return parser.ParseAmount(fields[0]), ""
	default:
		return parser.ParseAmount(fields[0]), fields[len(fields)-1]
	}
}

func mapType(raw string) (domain.InvestmentTransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return domain.InvestmentBuy, true
	case "sell":
		return domain.InvestmentSell, true
	default:
		return "", false
	}
}
