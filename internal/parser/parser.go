// Package parser defines the contracts and transient value types shared by
// all institution export parsers.
package parser

import (
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
)

// ParsedTransaction is a bank transaction as read from an export file,
// before identity assignment and persistence. Amount is signed: positive
// means credit, negative means debit.
type ParsedTransaction struct {
	Date        time.Time
	Amount      float64
	Description string
	// RawCategory is the bank-supplied category label, when the export
	// carries one.
	RawCategory    string
	Balance        float64
	HasBalance     bool
	ValueDate      time.Time
	Reference      string
	AdditionalInfo string
}

// ParsedPosition is an investment position as read from a snapshot export.
type ParsedPosition struct {
	Symbol          string
	ISIN            string
	Quantity        float64
	AvgBuyPrice     float64
	CurrentPrice    float64
	CurrentValue    float64
	GainLoss        float64
	GainLossPercent float64
	Currency        string
}

// ParsedInvestmentTransaction is one buy/sell row from a ledger export.
type ParsedInvestmentTransaction struct {
	Date         time.Time
	Symbol       string
	Type         domain.InvestmentTransactionType
	Quantity     float64
	PricePerUnit float64
	TotalAmount  float64
	Fee          float64
}

// BankParser turns the raw bytes of one institution's bank export into
// parsed transactions. Implementations are pure: no I/O, no side effects,
// safe for concurrent use.
//
// Rows missing a mandatory field (date, amount) are skipped silently, not
// reported, because real exports contain header, footer and blank rows. A
// zero-row result is not an error from the parser's point of view; the
// caller decides whether an empty file is fatal.
type BankParser interface {
	// Key returns the stable parser identifier used by the registry.
	Key() string

	Parse(content []byte) ([]ParsedTransaction, error)
}

// InvestmentParser turns an investment or crypto export into positions
// and/or ledger transactions. Snapshot parsers implement ParsePositions;
// ledger parsers implement ParseTransactions; the unsupported side returns
// ErrNotSupported.
type InvestmentParser interface {
	Key() string

	// Kind reports whether the source is a position snapshot or a
	// transaction ledger.
	Kind() domain.SourceKind

	ParsePositions(content []byte) ([]ParsedPosition, error)
	ParseTransactions(content []byte) ([]ParsedInvestmentTransaction, error)
}
