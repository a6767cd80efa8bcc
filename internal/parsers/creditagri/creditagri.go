// Package creditagri parses Crédit Agricole account exports: semicolon CSV
// with separate debit and credit columns, DD/MM/YYYY dates and decimal
// commas with space thousands separators.
package creditagri

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rumor-ml/finflow/internal/parser"
)

const (
	colDate = iota
	colLabel
	colDebit
	colCredit
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared Crédit Agricole parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "credit-agricole"
}

// Parse extracts transactions from a Crédit Agricole CSV export. A debit
// value yields a negative amount, a credit a positive one. Rows where both
// money columns are empty carry no amount and are skipped.
func (p *Parser) Parse(content []byte) ([]parser.ParsedTransaction, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.Comma = ';'
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read Crédit Agricole CSV: %w", err)
	}

	transactions := make([]parser.ParsedTransaction, 0, len(records))
	for _, record := range records {
		if len(record) <= colDebit {
			continue
		}

		date, err := parser.ParseDate(record[colDate])
		if err != nil {
			continue
		}

		debitStr := strings.TrimSpace(record[colDebit])
		creditStr := ""
		if len(record) > colCredit {
			creditStr = strings.TrimSpace(record[colCredit])
		}
		if debitStr == "" && creditStr == "" {
			continue
		}

		var amount float64
		if debitStr != "" {
			debit := parser.ParseAmount(debitStr)
			if debit < 0 {
				debit = -debit
			}
			amount = -debit
		} else {
			amount = parser.ParseAmount(creditStr)
		}

		// The label cell folds multi-line statement text into one field.
		description := strings.Join(strings.Fields(record[colLabel]), " ")
		if description == "" {
			continue
		}

		transactions = append(transactions, parser.ParsedTransaction{
			Date:        date,
			Amount:      amount,
			Description: description,
		})
	}

	return transactions, nil
}
