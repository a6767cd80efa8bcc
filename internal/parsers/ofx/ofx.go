// Package ofx parses OFX/QFX checking account exports. The one layout
// supported is the bank statement response (BANKMSGSRSV1); credit card and
// investment statement messages are not part of the supported export set.
package ofx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/rumor-ml/finflow/internal/parser"
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// New returns the shared OFX parser instance.
func New() *Parser {
	return parserInstance
}

// Key returns the parser identifier.
func (p *Parser) Key() string {
	return "ofx-generic"
}

// Parse extracts transactions from an OFX/QFX bank statement. Unlike the
// CSV parsers the whole document either parses or it does not: OFX is a
// structured format, so a malformed file is an error rather than a set of
// skippable rows. Individual transactions missing a date or description are
// still skipped silently, matching the CSV contract.
func (p *Parser) Parse(content []byte) ([]parser.ParsedTransaction, error) {
	response, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX document (%d bytes): %w", len(content), err)
	}

	if len(response.Bank) == 0 {
		return nil, fmt.Errorf("no bank statement found in OFX document (creditcard: %d, investment: %d messages present but unsupported)",
			len(response.CreditCard), len(response.InvStmt))
	}

	stmt, ok := response.Bank[0].(*ofxgo.StatementResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected bank statement type %T", response.Bank[0])
	}
	if stmt.BankTranList == nil {
		return nil, fmt.Errorf("bank statement has no transaction list")
	}

	transactions := make([]parser.ParsedTransaction, 0, len(stmt.BankTranList.Transactions))
	for _, txn := range stmt.BankTranList.Transactions {
		date := txn.DtPosted.Time
		if date.IsZero() {
			date = txn.DtUser.Time
		}
		if date.IsZero() {
			continue
		}

		description := strings.TrimSpace(txn.Name.String())
		if description == "" {
			description = strings.TrimSpace(txn.Memo.String())
		}
		if description == "" {
			continue
		}

		// OFX amounts are already signed: negative for debits.
		amount, _ := txn.TrnAmt.Float64()

		parsed := parser.ParsedTransaction{
			Date:        date,
			Amount:      amount,
			Description: description,
			Reference:   txn.FiTID.String(),
		}
		if memo := strings.TrimSpace(txn.Memo.String()); memo != "" && memo != description {
			parsed.AdditionalInfo = memo
		}

		transactions = append(transactions, parsed)
	}

	return transactions, nil
}
