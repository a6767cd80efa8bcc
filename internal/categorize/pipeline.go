package categorize

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/store"
)

const bankMapConfidence = 0.7

// Result summarizes one pipeline run.
type Result struct {
	// Per-stage claim counts.
	ByRule     int
	ByBankHint int
	ByAI       int
	Transfers  int
	// Applied counts assignments the store accepted under the overwrite
	// policy; Skipped counts writes the policy rejected (e.g. a MANUAL
	// assignment already present).
	Applied int
	Skipped int
	// Warnings collects advisory failures (AI batches, flag updates).
	// They never fail the run.
	Warnings []string
}

// Pipeline runs the four categorization stages in fixed order. Each stage
// only consumes transactions unclaimed by earlier stages, except the
// transfer detector, which may override in-run results. Persisted MANUAL
// and BANK assignments are protected by the store's overwrite policy at
// write time.
type Pipeline struct {
	engine      *RuleEngine
	ai          *AICategorizer
	accounts    store.Accounts
	txns        store.Transactions
	assignments store.Assignments
	log         zerolog.Logger
}

// NewPipeline constructs a pipeline. ai may be nil, which skips the AI
// stage (sources without a configured model key still get rules, bank
// hints and transfer detection).
func NewPipeline(engine *RuleEngine, ai *AICategorizer, accounts store.Accounts, txns store.Transactions, assignments store.Assignments, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		engine:      engine,
		ai:          ai,
		accounts:    accounts,
		txns:        txns,
		assignments: assignments,
		log:         log,
	}
}

// Run categorizes the given transactions, typically a freshly imported
// batch. sourceID scopes source-filtered rules. The returned error covers
// infrastructure failures only (store reads, rule loading); stage-level
// problems become warnings in the result.
func (p *Pipeline) Run(ctx context.Context, transactions []domain.Transaction, sourceID string) (*Result, error) {
	result := &Result{}
	if len(transactions) == 0 {
		return result, nil
	}

	ids := make([]string, len(transactions))
	for i, txn := range transactions {
		ids[i] = txn.ID
	}
	existing, err := p.assignments.ListAssignments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing assignments: %w", err)
	}

	// pending holds this run's stage results keyed by transaction ID.
	pending := make(map[string]domain.CategoryAssignment)
	claimed := func(id string) bool {
		if _, ok := pending[id]; ok {
			return true
		}
		_, ok := existing[id]
		return ok
	}

	// Stage 1: rule engine. First matching active rule wins, confidence
	// fixed at 1.0.
	for _, txn := range transactions {
		if claimed(txn.ID) {
			continue
		}
		rule, err := p.engine.Match(ctx, txn.Description, sourceID)
		if err != nil {
			return nil, err
		}
		if rule == nil {
			continue
		}
		assignment, err := domain.NewCategoryAssignment(txn.ID, rule.CategoryID, domain.SourceAuto, 1.0)
		if err != nil {
			return nil, err
		}
		pending[txn.ID] = *assignment
		result.ByRule++
	}

	// Stage 2: bank-supplied category hints.
	for _, txn := range transactions {
		if claimed(txn.ID) || txn.RawCategory == "" {
			continue
		}
		categoryID, ok := MapBankCategory(txn.RawCategory)
		if !ok {
			continue
		}
		assignment, err := domain.NewCategoryAssignment(txn.ID, categoryID, domain.SourceBank, bankMapConfidence)
		if err != nil {
			return nil, err
		}
		pending[txn.ID] = *assignment
		result.ByBankHint++
	}

	// Stage 3: AI inference over whatever is still unclaimed.
	if p.ai != nil {
		var unclaimed []domain.Transaction
		for _, txn := range transactions {
			if !claimed(txn.ID) {
				unclaimed = append(unclaimed, txn)
			}
		}
		if len(unclaimed) > 0 {
			ruleContext, err := p.engine.Rules(ctx)
			if err != nil {
				return nil, err
			}
			suggestions, warnings := p.ai.Categorize(ctx, unclaimed, ruleContext)
			result.Warnings = append(result.Warnings, warnings...)
			for _, s := range suggestions {
				assignment, err := domain.NewCategoryAssignment(s.TransactionID, s.CategoryID, domain.SourceAuto, s.Confidence)
				if err != nil {
					continue
				}
				pending[s.TransactionID] = *assignment
				result.ByAI++
			}
		}
	}

	// Stage 4: transfer detection over the full date window, all accounts.
	// This is the one stage allowed to override earlier in-run results.
	if err := p.detectTransfers(ctx, transactions, pending, result); err != nil {
		return nil, err
	}

	// Persist. The store's Apply enforces the overwrite policy against
	// whatever is currently persisted, making it the serialization point
	// for concurrent runs.
	for _, assignment := range pending {
		applied, err := p.assignments.Apply(ctx, assignment)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Warning: failed to persist assignment for %s: %v", assignment.TransactionID, err))
			continue
		}
		if applied {
			result.Applied++
		} else {
			result.Skipped++
		}
	}

	p.log.Info().
		Int("rules", result.ByRule).
		Int("bank", result.ByBankHint).
		Int("ai", result.ByAI).
		Int("transfers", result.Transfers).
		Int("applied", result.Applied).
		Msg("categorization pipeline finished")

	return result, nil
}

func (p *Pipeline) detectTransfers(ctx context.Context, transactions []domain.Transaction, pending map[string]domain.CategoryAssignment, result *Result) error {
	from, to := dateWindow(transactions)
	window, err := p.txns.FindByDateRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to load transfer window: %w", err)
	}

	accountList, err := p.accounts.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	accounts := make(map[string]domain.Account, len(accountList))
	for _, account := range accountList {
		accounts[account.ID] = account
	}

	pairs := DetectTransfers(window, accounts)

	// Both legs of every detected pair are written, including legs persisted
	// by earlier imports: a pair only becomes detectable once its second leg
	// arrives, so the run that imported the first leg could not have flagged
	// it. Re-flagging is idempotent and Apply protects MANUAL and BANK
	// assignments.
	for _, pair := range pairs {
		for _, id := range []string{pair.IncomeID, pair.ExpenseID} {
			assignment, err := domain.NewCategoryAssignment(id, pair.CategoryID, domain.SourceAuto, 1.0)
			if err != nil {
				return err
			}
			pending[id] = *assignment
			result.Transfers++

			if err := p.txns.FlagInternal(ctx, id, true); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Warning: failed to flag %s as internal: %v", id, err))
			}
		}
	}
	return nil
}

// dateWindow returns the batch's date range padded by the transfer window
// on both sides.
func dateWindow(transactions []domain.Transaction) (time.Time, time.Time) {
	from, to := transactions[0].Date, transactions[0].Date
	for _, txn := range transactions[1:] {
		if txn.Date.Before(from) {
			from = txn.Date
		}
		if txn.Date.After(to) {
			to = txn.Date
		}
	}
	return from.Add(-transferWindow), to.Add(transferWindow)
}
