// Package fortuneo parses Fortuneo account exports: semicolon CSV with
// operation and value dates, a label, and separate debit/credit columns.
package fortuneo

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rumor-ml/finflow/internal/parser"
)

const (
	colDateOp = iota
	colDateVal
	colLabel
	colDebit
	colCredit
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared Fortuneo parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "fortuneo"
}

// Parse extracts transactions from a Fortuneo CSV export. Fortuneo writes
// debits with an explicit minus sign; the sign is normalized here so a debit
// cell always produces a negative amount regardless.
func (p *Parser) Parse(content []byte) ([]parser.ParsedTransaction, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.Comma = ';'
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read Fortuneo CSV: %w", err)
	}

	transactions := make([]parser.ParsedTransaction, 0, len(records))
	for _, record := range records {
		if len(record) <= colDebit {
			continue
		}

		date, err := parser.ParseDate(record[colDateOp])
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
			if debit > 0 {
				debit = -debit
			}
			amount = debit
		} else {
			amount = parser.ParseAmount(creditStr)
		}

		description := strings.TrimSpace(record[colLabel])
		if description == "" {
			continue
		}

		txn := parser.ParsedTransaction{
			Date:        date,
			Amount:      amount,
			Description: description,
		}
		if valueDate, err := parser.ParseDate(record[colDateVal]); err == nil {
			txn.ValueDate = valueDate
		}

		transactions = append(transactions, txn)
	}

	return transactions, nil
}
