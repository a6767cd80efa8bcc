package categorize

import (
	"context"
	"errors"
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/store"
)

// fakeRules is an in-memory store.Rules.
type fakeRules struct {
	rules []domain.CategoryRule
	calls int
}

func (f *fakeRules) ListRules(ctx context.Context) ([]domain.CategoryRule, error) {
	f.calls++
	return f.rules, nil
}

func (f *fakeRules) SaveRule(ctx context.Context, rule domain.CategoryRule) error {
	f.rules = append(f.rules, rule)
	return nil
}

// fakeAccounts is an in-memory store.Accounts.
type fakeAccounts struct {
	accounts map[string]domain.Account
}

func (f *fakeAccounts) FindAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &account, nil
}

func (f *fakeAccounts) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0, len(f.accounts))
	for _, account := range f.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// fakeTransactions is an in-memory store.Transactions.
type fakeTransactions struct {
	transactions []domain.Transaction
	flagged      map[string]bool
}

func (f *fakeTransactions) FindByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, txn := range f.transactions {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeTransactions) FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, txn := range f.transactions {
		if !txn.Date.Before(from) && !txn.Date.After(to) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeTransactions) SaveMany(ctx context.Context, transactions []domain.Transaction) error {
	f.transactions = append(f.transactions, transactions...)
	return nil
}

func (f *fakeTransactions) FlagInternal(ctx context.Context, transactionID string, internal bool) error {
	if f.flagged == nil {
		f.flagged = make(map[string]bool)
	}
	f.flagged[transactionID] = internal
	return nil
}

// fakeAssignments is an in-memory store.Assignments enforcing the overwrite
// policy like the sqlite implementation does.
type fakeAssignments struct {
	assignments map[string]domain.CategoryAssignment
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{assignments: make(map[string]domain.CategoryAssignment)}
}

func (f *fakeAssignments) FindAssignment(ctx context.Context, transactionID string) (*domain.CategoryAssignment, error) {
	a, ok := f.assignments[transactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAssignments) ListAssignments(ctx context.Context, transactionIDs []string) (map[string]domain.CategoryAssignment, error) {
	out := make(map[string]domain.CategoryAssignment)
	for _, id := range transactionIDs {
		if a, ok := f.assignments[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeAssignments) Apply(ctx context.Context, assignment domain.CategoryAssignment) (bool, error) {
	var existing *domain.CategoryAssignment
	if a, ok := f.assignments[assignment.TransactionID]; ok {
		existing = &a
	}
	if !domain.CanOverwrite(existing, assignment.Source) {
		return false, nil
	}
	f.assignments[assignment.TransactionID] = assignment
	return true, nil
}

// fakeGenerator returns canned responses, or an error, per call.
type fakeGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response")
	}
	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return response, nil
}
