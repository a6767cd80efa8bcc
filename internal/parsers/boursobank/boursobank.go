// Package boursobank parses BoursoBank account exports: semicolon-delimited
// CSV with a single signed amount column and a bank-supplied category label.
package boursobank

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rumor-ml/finflow/internal/parser"
)

// Column layout of the BoursoBank CSV export.
const (
	colDateOp = iota
	colDateVal
	colLabel
	colCategory
	colCategoryParent
	colSupplier
	colAmount
	colAccountNum
	colAccountLabel
	colBalance
)

// Parser is stateless; each call operates only on its input, so the shared
// instance is safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared BoursoBank parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "boursobank"
}

// Parse extracts transactions from a BoursoBank CSV export.
// Header, footer and malformed rows are skipped silently.
func (p *Parser) Parse(content []byte) ([]parser.ParsedTransaction, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.Comma = ';'
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read BoursoBank CSV: %w", err)
	}

	transactions := make([]parser.ParsedTransaction, 0, len(records))
	for _, record := range records {
		if len(record) <= colAmount {
			continue
		}

		date, err := parser.ParseDate(record[colDateOp])
		if err != nil {
			// Header row or decoration line.
			continue
		}

		amountStr := strings.TrimSpace(record[colAmount])
		if amountStr == "" {
			continue
		}
		amount := parser.ParseAmount(amountStr)

		description := strings.TrimSpace(record[colLabel])
		if description == "" {
			continue
		}

		txn := parser.ParsedTransaction{
			Date:        date,
			Amount:      amount,
			Description: description,
			RawCategory: strings.TrimSpace(record[colCategory]),
		}

		if valueDate, err := parser.ParseDate(record[colDateVal]); err == nil {
			txn.ValueDate = valueDate
		}
		if balanceStr := cell(record, colBalance); balanceStr != "" {
			txn.Balance = parser.ParseAmount(balanceStr)
			txn.HasBalance = true
		}
		if supplier := cell(record, colSupplier); supplier != "" {
			txn.AdditionalInfo = supplier
		}

		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
