// Package dedup computes stable transaction signatures and filters out
// rows already seen, both against persisted history and within one batch.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/parser"
)

// Signature hashes the identifying fields of a bank transaction:
// ISO date, amount rounded to 2 decimals, and the trimmed lowercased
// description. Amounts differing only beyond 2 decimals collide, as do
// case and whitespace variants of the description. The amount is the
// signed parser-side value; persisted transactions must reconstruct the
// sign from their type before hashing.
func Signature(date time.Time, signedAmount float64, description string) string {
	input := fmt.Sprintf("%s|%.2f|%s",
		date.Format("2006-01-02"),
		signedAmount,
		strings.ToLower(strings.TrimSpace(description)),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// InvestmentSignature hashes the identifying fields of a ledger row. On top
// of the bank fields it includes the uppercased symbol, the buy/sell type,
// the quantity rounded to 8 decimals and the total rounded to 2.
func InvestmentSignature(date time.Time, symbol string, txnType domain.InvestmentTransactionType, quantity, totalAmount float64) string {
	input := fmt.Sprintf("%s|%s|%s|%.8f|%.2f",
		date.Format("2006-01-02"),
		strings.ToUpper(strings.TrimSpace(symbol)),
		txnType,
		quantity,
		totalAmount,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// Index is the set of known signatures for one account or source. It is
// built once per import from the full persisted history, then grows as the
// batch is accepted, which makes dedup effective within a single file too.
type Index struct {
	seen map[string]struct{}
}

// NewIndex creates an empty signature index.
func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// IndexTransactions builds an index from persisted bank transactions.
func IndexTransactions(history []domain.Transaction) *Index {
	idx := NewIndex()
	for i := range history {
		t := &history[i]
		idx.Add(Signature(t.Date, t.SignedAmount(), t.Description))
	}
	return idx
}

// IndexInvestmentTransactions builds an index from a persisted ledger.
func IndexInvestmentTransactions(history []domain.InvestmentTransaction) *Index {
	idx := NewIndex()
	for _, t := range history {
		idx.Add(InvestmentSignature(t.Date, t.Symbol, t.Type, t.Quantity, t.TotalAmount))
	}
	return idx
}

// Contains reports whether the signature was already seen.
func (idx *Index) Contains(signature string) bool {
	_, ok := idx.seen[signature]
	return ok
}

// Add records a signature.
func (idx *Index) Add(signature string) {
	idx.seen[signature] = struct{}{}
}

// AddIfNew records the signature and reports whether it was new.
func (idx *Index) AddIfNew(signature string) bool {
	if idx.Contains(signature) {
		return false
	}
	idx.Add(signature)
	return true
}

// Len returns the number of distinct signatures.
func (idx *Index) Len() int {
	return len(idx.seen)
}

// FilterTransactions returns the parsed rows whose signature is not in the
// index, adding each accepted row's signature immediately so that two
// identical rows in one batch import only the first.
func (idx *Index) FilterTransactions(parsed []parser.ParsedTransaction) (accepted []parser.ParsedTransaction, skipped int) {
	accepted = make([]parser.ParsedTransaction, 0, len(parsed))
	for _, t := range parsed {
		if idx.AddIfNew(Signature(t.Date, t.Amount, t.Description)) {
			accepted = append(accepted, t)
		} else {
			skipped++
		}
	}
	return accepted, skipped
}

// FilterInvestmentTransactions is FilterTransactions for ledger rows.
func (idx *Index) FilterInvestmentTransactions(parsed []parser.ParsedInvestmentTransaction) (accepted []parser.ParsedInvestmentTransaction, skipped int) {
	accepted = make([]parser.ParsedInvestmentTransaction, 0, len(parsed))
	for _, t := range parsed {
		if idx.AddIfNew(InvestmentSignature(t.Date, t.Symbol, t.Type, t.Quantity, t.TotalAmount)) {
			accepted = append(accepted, t)
		} else {
			skipped++
		}
	}
	return accepted, skipped
}
