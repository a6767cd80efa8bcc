package categorize

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/domain"
)

func pipelineTxn(id, accountID, description, rawCategory string, txnType domain.TransactionType, amount float64, day int) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		AccountID:   accountID,
		Type:        txnType,
		Amount:      domain.Money{Amount: amount, Currency: "EUR"},
		Description: description,
		RawCategory: rawCategory,
		Date:        time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
	}
}

func newTestPipeline(rules *fakeRules, ai *AICategorizer, txns *fakeTransactions, assignments *fakeAssignments) *Pipeline {
	accounts := &fakeAccounts{accounts: map[string]domain.Account{
		"acc-checking": {ID: "acc-checking", Type: domain.AccountChecking},
		"acc-savings":  {ID: "acc-savings", Type: domain.AccountSavings},
	}}
	return NewPipeline(NewRuleEngine(rules), ai, accounts, txns, assignments, zerolog.Nop())
}

func TestRun_RuleStageWins(t *testing.T) {
	rules := &fakeRules{rules: []domain.CategoryRule{
		rule("r-1", domain.CategoryGroceries, "carrefour", domain.MatchContains, 0),
	}}
	// RawCategory would also map, but the rule stage claims first.
	batch := []domain.Transaction{
		pipelineTxn("t-1", "acc-checking", "CARTE CARREFOUR", "Restaurants", domain.TypeExpense, 45.5, 10),
	}
	txns := &fakeTransactions{transactions: batch}
	assignments := newFakeAssignments()
	p := newTestPipeline(rules, nil, txns, assignments)

	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ByRule != 1 || result.ByBankHint != 0 {
		t.Errorf("ByRule=%d ByBankHint=%d, want 1/0", result.ByRule, result.ByBankHint)
	}
	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}

	applied := assignments.assignments["t-1"]
	if applied.CategoryID != domain.CategoryGroceries {
		t.Errorf("CategoryID = %q, want cat-groceries", applied.CategoryID)
	}
	if applied.Source != domain.SourceAuto || applied.Confidence != 1.0 {
		t.Errorf("assignment = %+v, want AUTO/1.0", applied)
	}
}

func TestRun_BankHintStage(t *testing.T) {
	batch := []domain.Transaction{
		pipelineTxn("t-1", "acc-checking", "CARTE U", "Alimentation", domain.TypeExpense, 45.5, 10),
	}
	txns := &fakeTransactions{transactions: batch}
	assignments := newFakeAssignments()
	p := newTestPipeline(&fakeRules{}, nil, txns, assignments)

	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ByBankHint != 1 {
		t.Errorf("ByBankHint = %d, want 1", result.ByBankHint)
	}

	applied := assignments.assignments["t-1"]
	if applied.Source != domain.SourceBank || applied.Confidence != bankMapConfidence {
		t.Errorf("assignment = %+v, want BANK/%v", applied, bankMapConfidence)
	}
}

func TestRun_AIStageOnlyUnclaimed(t *testing.T) {
	rules := &fakeRules{rules: []domain.CategoryRule{
		rule("r-1", domain.CategoryGroceries, "carrefour", domain.MatchContains, 0),
	}}
	batch := []domain.Transaction{
		pipelineTxn("t-claimed", "acc-checking", "CARTE CARREFOUR", "", domain.TypeExpense, 45.5, 10),
		pipelineTxn("t-open", "acc-checking", "MYSTERY SHOP", "", domain.TypeExpense, 20, 10),
	}
	gen := &fakeGenerator{responses: []string{
		`[{"id": "t-open", "category": "cat-shopping", "confidence": 0.7}]`,
	}}
	txns := &fakeTransactions{transactions: batch}
	assignments := newFakeAssignments()
	p := newTestPipeline(rules, NewAICategorizer(gen), txns, assignments)

	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ByRule != 1 || result.ByAI != 1 {
		t.Errorf("ByRule=%d ByAI=%d, want 1/1", result.ByRule, result.ByAI)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	// The claimed transaction must not appear in the AI prompt.
	for _, prompt := range gen.prompts {
		if strings.Contains(prompt, `"t-claimed"`) {
			t.Error("AI prompt contains a transaction already claimed by the rule stage")
		}
	}
}

func TestRun_TransferOverridesInRunResult(t *testing.T) {
	// The bank hint claims the expense leg, but transfer detection runs
	// last and overrides the in-run assignment.
	batch := []domain.Transaction{
		pipelineTxn("t-out", "acc-checking", "VIR VERS LIVRET", "Virements emis", domain.TypeExpense, 500, 10),
		pipelineTxn("t-in", "acc-savings", "VIR RECU", "", domain.TypeIncome, 500, 11),
	}
	txns := &fakeTransactions{transactions: batch}
	assignments := newFakeAssignments()
	p := newTestPipeline(&fakeRules{}, nil, txns, assignments)

	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Transfers != 2 {
		t.Errorf("Transfers = %d, want 2 (both legs)", result.Transfers)
	}

	// Receiving account is savings, so both legs get cat-savings.
	for _, id := range []string{"t-out", "t-in"} {
		if got := assignments.assignments[id].CategoryID; got != domain.CategorySavings {
			t.Errorf("assignment[%s] = %q, want cat-savings", id, got)
		}
	}
	if !txns.flagged["t-out"] || !txns.flagged["t-in"] {
		t.Errorf("transfer legs not flagged internal: %v", txns.flagged)
	}
}

func TestRun_TransferPairsAcrossImports(t *testing.T) {
	// The expense leg was persisted by an earlier import; only the income
	// leg is in this batch. The pair was undetectable back then, so this
	// run must flag and categorize both legs.
	earlier := pipelineTxn("t-out", "acc-checking", "VIR VERS LIVRET", "", domain.TypeExpense, 500, 10)
	income := pipelineTxn("t-in", "acc-savings", "VIR RECU", "", domain.TypeIncome, 500, 11)
	batch := []domain.Transaction{income}
	txns := &fakeTransactions{transactions: []domain.Transaction{earlier, income}}
	assignments := newFakeAssignments()
	p := newTestPipeline(&fakeRules{}, nil, txns, assignments)

	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Transfers != 2 {
		t.Errorf("Transfers = %d, want 2 (both legs)", result.Transfers)
	}
	for _, id := range []string{"t-out", "t-in"} {
		if got := assignments.assignments[id].CategoryID; got != domain.CategorySavings {
			t.Errorf("assignment[%s] = %q, want cat-savings", id, got)
		}
		if !txns.flagged[id] {
			t.Errorf("leg %s not flagged internal", id)
		}
	}
}

func TestRun_ManualAssignmentProtected(t *testing.T) {
	batch := []domain.Transaction{
		pipelineTxn("t-1", "acc-checking", "CARTE CARREFOUR", "Alimentation", domain.TypeExpense, 45.5, 10),
	}
	txns := &fakeTransactions{transactions: batch}
	assignments := newFakeAssignments()
	manual, err := domain.NewCategoryAssignment("t-1", domain.CategoryLeisure, domain.SourceManual, 1.0)
	if err != nil {
		t.Fatalf("NewCategoryAssignment() error = %v", err)
	}
	assignments.assignments["t-1"] = *manual

	rules := &fakeRules{rules: []domain.CategoryRule{
		rule("r-1", domain.CategoryGroceries, "carrefour", domain.MatchContains, 0),
	}}
	p := newTestPipeline(rules, nil, txns, assignments)

	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ByRule != 0 {
		t.Errorf("ByRule = %d, want 0 (already assigned transactions are not re-claimed)", result.ByRule)
	}
	if got := assignments.assignments["t-1"].CategoryID; got != domain.CategoryLeisure {
		t.Errorf("manual assignment overwritten: %q", got)
	}
}

func TestRun_TransferCannotOverwritePersistedManual(t *testing.T) {
	batch := []domain.Transaction{
		pipelineTxn("t-out", "acc-checking", "VIR VERS LIVRET", "", domain.TypeExpense, 500, 10),
		pipelineTxn("t-in", "acc-savings", "VIR RECU", "", domain.TypeIncome, 500, 10),
	}
	txns := &fakeTransactions{transactions: batch}
	assignments := newFakeAssignments()
	manual, err := domain.NewCategoryAssignment("t-out", domain.CategoryOther, domain.SourceManual, 1.0)
	if err != nil {
		t.Fatalf("NewCategoryAssignment() error = %v", err)
	}
	assignments.assignments["t-out"] = *manual

	p := newTestPipeline(&fakeRules{}, nil, txns, assignments)
	result, err := p.Run(context.Background(), batch, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Transfer detection still claims both legs in-run, but the store's
	// overwrite policy rejects the manual one at persist time.
	if got := assignments.assignments["t-out"].CategoryID; got != domain.CategoryOther {
		t.Errorf("manual assignment overwritten by transfer stage: %q", got)
	}
	if got := assignments.assignments["t-in"].CategoryID; got != domain.CategorySavings {
		t.Errorf("income leg = %q, want cat-savings", got)
	}
	if result.Skipped == 0 {
		t.Error("Skipped = 0, want the rejected manual overwrite counted")
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	p := newTestPipeline(&fakeRules{}, nil, &fakeTransactions{}, newFakeAssignments())
	result, err := p.Run(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Applied != 0 {
		t.Errorf("Applied = %d, want 0", result.Applied)
	}
}
