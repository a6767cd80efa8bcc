// Package domain holds the canonical transaction and position model shared by
// the importers, the categorization pipeline, and the stores.
package domain

import (
	"fmt"
	"time"
)

// CategoryID identifies a spending category from the closed set below.
// Use ValidCategory to check membership before accepting external input.
type CategoryID string

const (
	CategorySalary        CategoryID = "cat-salary"
	CategoryGroceries     CategoryID = "cat-groceries"
	CategoryRestaurant    CategoryID = "cat-restaurant"
	CategoryTransport     CategoryID = "cat-transport"
	CategoryHousing       CategoryID = "cat-housing"
	CategoryUtilities     CategoryID = "cat-utilities"
	CategoryHealth        CategoryID = "cat-health"
	CategoryLeisure       CategoryID = "cat-leisure"
	CategoryShopping      CategoryID = "cat-shopping"
	CategorySubscriptions CategoryID = "cat-subscriptions"
	CategoryTaxes         CategoryID = "cat-taxes"
	CategorySavings       CategoryID = "cat-savings"
	CategoryInvestment    CategoryID = "cat-investment"
	CategoryTransfer      CategoryID = "cat-transfer"
	CategoryOther         CategoryID = "cat-other"
)

var validCategories = map[CategoryID]struct{}{
	CategorySalary: {}, CategoryGroceries: {}, CategoryRestaurant: {},
	CategoryTransport: {}, CategoryHousing: {}, CategoryUtilities: {},
	CategoryHealth: {}, CategoryLeisure: {}, CategoryShopping: {},
	CategorySubscriptions: {}, CategoryTaxes: {}, CategorySavings: {},
	CategoryInvestment: {}, CategoryTransfer: {}, CategoryOther: {},
}

// ValidCategory reports whether id belongs to the closed category set.
func ValidCategory(id CategoryID) bool {
	_, ok := validCategories[id]
	return ok
}

// Categories returns the closed category set in a stable order.
func Categories() []CategoryID {
	return []CategoryID{
		CategorySalary, CategoryGroceries, CategoryRestaurant,
		CategoryTransport, CategoryHousing, CategoryUtilities,
		CategoryHealth, CategoryLeisure, CategoryShopping,
		CategorySubscriptions, CategoryTaxes, CategorySavings,
		CategoryInvestment, CategoryTransfer, CategoryOther,
	}
}

// TransactionType classifies a persisted transaction by money direction.
type TransactionType string

const (
	TypeIncome   TransactionType = "INCOME"
	TypeExpense  TransactionType = "EXPENSE"
	TypeTransfer TransactionType = "TRANSFER"
)

// TypeForAmount derives the transaction type from a parser's signed amount.
// Zero counts as income so that the stored magnitude is always non-negative.
func TypeForAmount(signed float64) TransactionType {
	if signed >= 0 {
		return TypeIncome
	}
	return TypeExpense
}

// Money is an unsigned monetary magnitude with its currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// AccountType is the account type enum used by transfer detection.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCrypto     AccountType = "crypto"
)

var validAccountTypes = map[AccountType]struct{}{
	AccountChecking: {}, AccountSavings: {}, AccountInvestment: {}, AccountCrypto: {},
}

// ValidAccountType reports whether t is a known account type.
func ValidAccountType(t AccountType) bool {
	_, ok := validAccountTypes[t]
	return ok
}

// Account is a user account that imported transactions attach to.
type Account struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	Currency string      `json:"currency"`
}

// NewAccount creates a validated account.
func NewAccount(id, name string, accountType AccountType, currency string) (*Account, error) {
	if id == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("account name cannot be empty")
	}
	if !ValidAccountType(accountType) {
		return nil, fmt.Errorf("invalid account type: %s", accountType)
	}
	if currency == "" {
		currency = "EUR"
	}
	return &Account{ID: id, Name: name, Type: accountType, Currency: currency}, nil
}

// Transaction is the persisted bank transaction entity.
//
// Invariant: Amount.Amount is always non-negative; the money direction lives in
// Type. Created during import and never mutated afterwards except for category
// assignment and the IsInternal transfer flag.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      Money           `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	ImportedAt  time.Time       `json:"importedAt"`
	// RawCategory carries the bank-supplied category label when the export
	// includes one. Consumed by the bank-category mapping stage.
	RawCategory string `json:"rawCategory,omitempty"`
	IsInternal  bool   `json:"isInternal"`
}

// NewTransaction builds a persisted transaction from a parser's signed amount.
// The type is derived from the sign and the stored magnitude is made positive.
func NewTransaction(id, accountID string, date time.Time, signedAmount float64, currency, description string) (*Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("transaction ID cannot be empty")
	}
	if accountID == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	if currency == "" {
		currency = "EUR"
	}

	magnitude := signedAmount
	if magnitude < 0 {
		magnitude = -magnitude
	}

	return &Transaction{
		ID:          id,
		AccountID:   accountID,
		Type:        TypeForAmount(signedAmount),
		Amount:      Money{Amount: magnitude, Currency: currency},
		Description: description,
		Date:        date,
		ImportedAt:  time.Now(),
	}, nil
}

// SignedAmount reconstructs the parser-side signed amount from the stored
// type and magnitude. Expenses are negative, everything else positive.
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TypeExpense {
		return -t.Amount.Amount
	}
	return t.Amount.Amount
}

// SourceKind distinguishes snapshot investment sources (full position list per
// export, replace-all on import) from ledger sources (append-only transaction
// history, positions derived).
type SourceKind string

const (
	KindSnapshot SourceKind = "snapshot"
	KindLedger   SourceKind = "ledger"
)

// DataSource is a configured bank export source.
// Importers call the store's MarkSynced after every import attempt; sources
// are never deleted automatically.
type DataSource struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	ParserKey       string     `json:"parserKey"`
	LinkedAccountID string     `json:"linkedAccountId,omitempty"`
	LastSyncAt      *time.Time `json:"lastSyncAt,omitempty"`
}

// InvestmentSource is a configured brokerage, insurance or crypto source.
type InvestmentSource struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ParserKey  string     `json:"parserKey"`
	Kind       SourceKind `json:"kind"`
	Currency   string     `json:"currency"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}

// InvestmentTransactionType is the buy/sell enum for investment ledgers.
type InvestmentTransactionType string

const (
	InvestmentBuy  InvestmentTransactionType = "buy"
	InvestmentSell InvestmentTransactionType = "sell"
)

// InvestmentTransaction is one row of a source's buy/sell ledger.
// Append-only per source; never mutated.
type InvestmentTransaction struct {
	ID           string                    `json:"id"`
	SourceID     string                    `json:"sourceId"`
	Date         time.Time                 `json:"date"`
	Symbol       string                    `json:"symbol"`
	Type         InvestmentTransactionType `json:"type"`
	Quantity     float64                   `json:"quantity"`
	PricePerUnit float64                   `json:"pricePerUnit"`
	TotalAmount  float64                   `json:"totalAmount"`
	Fee          float64                   `json:"fee"`
}

// InvestmentPosition is a held position, either imported from a snapshot
// export or derived from a ledger by the cost-basis calculator.
//
// Invariants (within rounding): CurrentValue = Quantity * CurrentPrice and
// GainLoss = CurrentValue - Quantity * AvgBuyPrice.
type InvestmentPosition struct {
	ID              string  `json:"id"`
	SourceID        string  `json:"sourceId"`
	Symbol          string  `json:"symbol"`
	ISIN            string  `json:"isin,omitempty"`
	Quantity        float64 `json:"quantity"`
	AvgBuyPrice     float64 `json:"avgBuyPrice"`
	CurrentPrice    float64 `json:"currentPrice"`
	CurrentValue    float64 `json:"currentValue"`
	GainLoss        float64 `json:"gainLoss"`
	GainLossPercent float64 `json:"gainLossPercent"`
	Currency        string  `json:"currency"`
}

// NetWorthSnapshot is the daily record written by the sync CLIs.
type NetWorthSnapshot struct {
	Date            time.Time `json:"date"`
	BankTotal       float64   `json:"bankTotal"`
	InvestmentTotal float64   `json:"investmentTotal"`
	Total           float64   `json:"total"`
	Currency        string    `json:"currency"`
}
