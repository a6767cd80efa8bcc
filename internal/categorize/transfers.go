package categorize

import (
	"math"
	"sort"
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
)

// transferWindow is how far apart the two legs of an internal transfer may
// be dated.
const transferWindow = 3 * 24 * time.Hour

// TransferPair is a matched income/expense pair representing money moving
// between the user's own accounts.
type TransferPair struct {
	IncomeID   string
	ExpenseID  string
	CategoryID domain.CategoryID
}

// DetectTransfers scans all transactions in the affected date window, not
// just uncategorized ones, for INCOME/EXPENSE pairs with equal absolute
// amount, different accounts, dated within the window. Each income is
// matched to at most one expense: candidates are sorted by date then ID for
// determinism, and the first match wins.
//
// The pair's category depends on the account the money lands in: savings
// accounts map to cat-savings, investment accounts to cat-investment,
// anything else to cat-transfer.
func DetectTransfers(transactions []domain.Transaction, accounts map[string]domain.Account) []TransferPair {
	var incomes, expenses []domain.Transaction
	for _, txn := range transactions {
		switch txn.Type {
		case domain.TypeIncome:
			incomes = append(incomes, txn)
		case domain.TypeExpense:
			expenses = append(expenses, txn)
		}
	}

	sortByDateThenID(incomes)
	sortByDateThenID(expenses)

	usedExpenses := make(map[string]struct{})
	var pairs []TransferPair

	for _, income := range incomes {
		for _, expense := range expenses {
			if _, used := usedExpenses[expense.ID]; used {
				continue
			}
			if expense.AccountID == income.AccountID {
				continue
			}
			if !amountsEqual(income.Amount.Amount, expense.Amount.Amount) {
				continue
			}
			if absDuration(income.Date.Sub(expense.Date)) > transferWindow {
				continue
			}

			usedExpenses[expense.ID] = struct{}{}
			pairs = append(pairs, TransferPair{
				IncomeID:   income.ID,
				ExpenseID:  expense.ID,
				CategoryID: transferCategory(accounts, income.AccountID),
			})
			break
		}
	}

	return pairs
}

func transferCategory(accounts map[string]domain.Account, receivingAccountID string) domain.CategoryID {
	account, ok := accounts[receivingAccountID]
	if !ok {
		return domain.CategoryTransfer
	}
	switch account.Type {
	case domain.AccountSavings:
		return domain.CategorySavings
	case domain.AccountInvestment:
		return domain.CategoryInvestment
	default:
		return domain.CategoryTransfer
	}
}

func sortByDateThenID(transactions []domain.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		return transactions[i].ID < transactions[j].ID
	})
}

// amountsEqual compares magnitudes at the 2-decimal resolution the dedup
// signatures use.
func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
