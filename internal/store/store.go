// Package store defines the persistence contracts consumed by the importers
// and the categorization pipeline. The core packages only ever see these
// interfaces; the sqlite subpackage provides the bundled implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// Accounts provides read access to user accounts.
type Accounts interface {
	FindAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// Transactions persists bank transactions. Imported transactions are never
// mutated through this interface except for the internal-transfer flag.
type Transactions interface {
	FindByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error)
	// FindByDateRange returns transactions across all accounts whose date
	// falls in [from, to], used by the transfer detector's window scan.
	FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	SaveMany(ctx context.Context, transactions []domain.Transaction) error
	FlagInternal(ctx context.Context, transactionID string, internal bool) error
}

// DataSources persists bank export sources.
type DataSources interface {
	FindDataSource(ctx context.Context, id string) (*domain.DataSource, error)
	ListDataSources(ctx context.Context) ([]domain.DataSource, error)
	// MarkSynced records an import attempt. It runs after every attempt,
	// success or partial failure alike.
	MarkSynced(ctx context.Context, id string, at time.Time) error
}

// InvestmentSources persists investment and crypto sources.
type InvestmentSources interface {
	FindInvestmentSource(ctx context.Context, id string) (*domain.InvestmentSource, error)
	ListInvestmentSources(ctx context.Context) ([]domain.InvestmentSource, error)
	MarkInvestmentSynced(ctx context.Context, id string, at time.Time) error
}

// InvestmentLedger persists the append-only buy/sell history of ledger
// sources.
type InvestmentLedger interface {
	FindTransactionsBySourceID(ctx context.Context, sourceID string) ([]domain.InvestmentTransaction, error)
	SaveInvestmentTransactions(ctx context.Context, transactions []domain.InvestmentTransaction) error
}

// Positions persists investment positions. Snapshot imports and ledger
// recomputation both use delete-all-then-insert semantics.
type Positions interface {
	DeletePositionsBySourceID(ctx context.Context, sourceID string) error
	SavePosition(ctx context.Context, position domain.InvestmentPosition) error
	FindPositionsBySourceID(ctx context.Context, sourceID string) ([]domain.InvestmentPosition, error)
}

// Rules persists user categorization rules.
type Rules interface {
	ListRules(ctx context.Context) ([]domain.CategoryRule, error)
	SaveRule(ctx context.Context, rule domain.CategoryRule) error
}

// Assignments persists category assignments. Apply is the serialization
// point for concurrent pipeline runs: it checks the overwrite policy against
// the currently persisted assignment and reports whether the write happened.
type Assignments interface {
	FindAssignment(ctx context.Context, transactionID string) (*domain.CategoryAssignment, error)
	ListAssignments(ctx context.Context, transactionIDs []string) (map[string]domain.CategoryAssignment, error)
	Apply(ctx context.Context, assignment domain.CategoryAssignment) (bool, error)
}

// Snapshots records daily net-worth snapshots written by the sync CLIs.
type Snapshots interface {
	SaveSnapshot(ctx context.Context, snapshot domain.NetWorthSnapshot) error
}

// Store aggregates every contract the CLIs wire together.
type Store interface {
	Accounts
	Transactions
	DataSources
	InvestmentSources
	InvestmentLedger
	Positions
	Rules
	Assignments
	Snapshots
}
