// Package sqlite is the bundled store.Store implementation backed by a local
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	type TEXT NOT NULL,
	amount REAL NOT NULL,
	currency TEXT NOT NULL,
	description TEXT NOT NULL,
	date TIMESTAMP NOT NULL,
	imported_at TIMESTAMP NOT NULL,
	raw_category TEXT NOT NULL DEFAULT '',
	is_internal INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);

CREATE TABLE IF NOT EXISTS data_sources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	parser_key TEXT NOT NULL,
	linked_account_id TEXT NOT NULL DEFAULT '',
	last_sync_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS investment_sources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	parser_key TEXT NOT NULL,
	kind TEXT NOT NULL,
	currency TEXT NOT NULL,
	last_sync_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS investment_transactions (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES investment_sources(id),
	date TIMESTAMP NOT NULL,
	symbol TEXT NOT NULL,
	type TEXT NOT NULL,
	quantity REAL NOT NULL,
	price_per_unit REAL NOT NULL,
	total_amount REAL NOT NULL,
	fee REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_investment_transactions_source ON investment_transactions(source_id);

CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES investment_sources(id),
	symbol TEXT NOT NULL,
	isin TEXT NOT NULL DEFAULT '',
	quantity REAL NOT NULL,
	avg_buy_price REAL NOT NULL,
	current_price REAL NOT NULL,
	current_value REAL NOT NULL,
	gain_loss REAL NOT NULL,
	gain_loss_percent REAL NOT NULL,
	currency TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_source ON positions(source_id);

CREATE TABLE IF NOT EXISTS category_rules (
	id TEXT PRIMARY KEY,
	category_id TEXT NOT NULL,
	pattern TEXT NOT NULL,
	match_type TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	source TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS category_assignments (
	transaction_id TEXT PRIMARY KEY REFERENCES transactions(id),
	category_id TEXT NOT NULL,
	source TEXT NOT NULL,
	confidence REAL NOT NULL,
	assigned_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS net_worth_snapshots (
	date TEXT PRIMARY KEY,
	bank_total REAL NOT NULL,
	investment_total REAL NOT NULL,
	total REAL NOT NULL,
	currency TEXT NOT NULL
);
`

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY between the importers and the pipeline.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAccount inserts or updates an account. Used by the CLIs to seed
// configured accounts at startup.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, currency) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, currency = excluded.currency`,
		account.ID, account.Name, string(account.Type), account.Currency)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

// FindAccount retrieves an account by ID.
func (s *Store) FindAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, type, currency FROM accounts WHERE id = ?`, id)

	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", id, err)
	}
	return &a, nil
}

// ListAccounts retrieves all accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, currency FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

const transactionColumns = `id, account_id, type, amount, currency, description, date, imported_at, raw_category, is_internal`

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var t domain.Transaction
	err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount.Amount, &t.Amount.Currency,
		&t.Description, &t.Date, &t.ImportedAt, &t.RawCategory, &t.IsInternal)
	return t, err
}

// FindByAccountID retrieves all transactions of one account, newest first.
func (s *Store) FindByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE account_id = ? ORDER BY date DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// FindByDateRange retrieves transactions across all accounts with date in
// [from, to].
func (s *Store) FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE date >= ? AND date <= ? ORDER BY date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by date range: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// SaveMany inserts transactions in a single database transaction. All rows
// commit together or none do.
func (s *Store) SaveMany(ctx context.Context, transactions []domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range transactions {
		if _, err := stmt.ExecContext(ctx, t.ID, t.AccountID, string(t.Type),
			t.Amount.Amount, t.Amount.Currency, t.Description, t.Date,
			t.ImportedAt, t.RawCategory, t.IsInternal); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// FlagInternal sets or clears the internal-transfer flag.
func (s *Store) FlagInternal(ctx context.Context, transactionID string, internal bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET is_internal = ? WHERE id = ?`, internal, transactionID)
	if err != nil {
		return fmt.Errorf("failed to flag transaction %s: %w", transactionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SaveDataSource inserts or updates a bank export source.
func (s *Store) SaveDataSource(ctx context.Context, source domain.DataSource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO data_sources (id, name, parser_key, linked_account_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, parser_key = excluded.parser_key,
			linked_account_id = excluded.linked_account_id`,
		source.ID, source.Name, source.ParserKey, source.LinkedAccountID)
	if err != nil {
		return fmt.Errorf("failed to save data source %s: %w", source.ID, err)
	}
	return nil
}

// FindDataSource retrieves a bank export source by ID.
func (s *Store) FindDataSource(ctx context.Context, id string) (*domain.DataSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, parser_key, linked_account_id, last_sync_at FROM data_sources WHERE id = ?`, id)

	var src domain.DataSource
	var lastSync sql.NullTime
	if err := row.Scan(&src.ID, &src.Name, &src.ParserKey, &src.LinkedAccountID, &lastSync); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find data source %s: %w", id, err)
	}
	if lastSync.Valid {
		src.LastSyncAt = &lastSync.Time
	}
	return &src, nil
}

// ListDataSources retrieves all bank export sources ordered by name.
func (s *Store) ListDataSources(ctx context.Context) ([]domain.DataSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, parser_key, linked_account_id, last_sync_at FROM data_sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.DataSource
	for rows.Next() {
		var src domain.DataSource
		var lastSync sql.NullTime
		if err := rows.Scan(&src.ID, &src.Name, &src.ParserKey, &src.LinkedAccountID, &lastSync); err != nil {
			return nil, fmt.Errorf("failed to scan data source: %w", err)
		}
		if lastSync.Valid {
			src.LastSyncAt = &lastSync.Time
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// MarkSynced records the time of the latest import attempt.
func (s *Store) MarkSynced(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE data_sources SET last_sync_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark source %s synced: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SaveInvestmentSource inserts or updates an investment source.
func (s *Store) SaveInvestmentSource(ctx context.Context, source domain.InvestmentSource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investment_sources (id, name, parser_key, kind, currency) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, parser_key = excluded.parser_key,
			kind = excluded.kind, currency = excluded.currency`,
		source.ID, source.Name, source.ParserKey, string(source.Kind), source.Currency)
	if err != nil {
		return fmt.Errorf("failed to save investment source %s: %w", source.ID, err)
	}
	return nil
}

// FindInvestmentSource retrieves an investment source by ID.
func (s *Store) FindInvestmentSource(ctx context.Context, id string) (*domain.InvestmentSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, parser_key, kind, currency, last_sync_at FROM investment_sources WHERE id = ?`, id)

	var src domain.InvestmentSource
	var lastSync sql.NullTime
	if err := row.Scan(&src.ID, &src.Name, &src.ParserKey, &src.Kind, &src.Currency, &lastSync); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find investment source %s: %w", id, err)
	}
	if lastSync.Valid {
		src.LastSyncAt = &lastSync.Time
	}
	return &src, nil
}

// ListInvestmentSources retrieves all investment sources ordered by name.
func (s *Store) ListInvestmentSources(ctx context.Context) ([]domain.InvestmentSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, parser_key, kind, currency, last_sync_at FROM investment_sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list investment sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.InvestmentSource
	for rows.Next() {
		var src domain.InvestmentSource
		var lastSync sql.NullTime
		if err := rows.Scan(&src.ID, &src.Name, &src.ParserKey, &src.Kind, &src.Currency, &lastSync); err != nil {
			return nil, fmt.Errorf("failed to scan investment source: %w", err)
		}
		if lastSync.Valid {
			src.LastSyncAt = &lastSync.Time
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// MarkInvestmentSynced records the time of the latest import attempt.
func (s *Store) MarkInvestmentSynced(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE investment_sources SET last_sync_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark investment source %s synced: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindTransactionsBySourceID retrieves a source's buy/sell ledger ordered by
// date.
func (s *Store) FindTransactionsBySourceID(ctx context.Context, sourceID string) ([]domain.InvestmentTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, date, symbol, type, quantity, price_per_unit, total_amount, fee
		FROM investment_transactions WHERE source_id = ? ORDER BY date, id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for source %s: %w", sourceID, err)
	}
	defer rows.Close()

	var transactions []domain.InvestmentTransaction
	for rows.Next() {
		var t domain.InvestmentTransaction
		if err := rows.Scan(&t.ID, &t.SourceID, &t.Date, &t.Symbol, &t.Type,
			&t.Quantity, &t.PricePerUnit, &t.TotalAmount, &t.Fee); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// SaveInvestmentTransactions appends ledger rows in a single database
// transaction.
func (s *Store) SaveInvestmentTransactions(ctx context.Context, transactions []domain.InvestmentTransaction) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO investment_transactions (id, source_id, date, symbol, type, quantity, price_per_unit, total_amount, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range transactions {
		if _, err := stmt.ExecContext(ctx, t.ID, t.SourceID, t.Date, t.Symbol,
			string(t.Type), t.Quantity, t.PricePerUnit, t.TotalAmount, t.Fee); err != nil {
			return fmt.Errorf("failed to insert ledger row %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// DeletePositionsBySourceID removes every position of one source.
func (s *Store) DeletePositionsBySourceID(ctx context.Context, sourceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("failed to delete positions for source %s: %w", sourceID, err)
	}
	return nil
}

// SavePosition inserts a position.
func (s *Store) SavePosition(ctx context.Context, position domain.InvestmentPosition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (id, source_id, symbol, isin, quantity, avg_buy_price, current_price,
			current_value, gain_loss, gain_loss_percent, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		position.ID, position.SourceID, position.Symbol, position.ISIN, position.Quantity,
		position.AvgBuyPrice, position.CurrentPrice, position.CurrentValue,
		position.GainLoss, position.GainLossPercent, position.Currency)
	if err != nil {
		return fmt.Errorf("failed to save position %s: %w", position.ID, err)
	}
	return nil
}

// FindPositionsBySourceID retrieves a source's positions ordered by symbol.
func (s *Store) FindPositionsBySourceID(ctx context.Context, sourceID string) ([]domain.InvestmentPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, symbol, isin, quantity, avg_buy_price, current_price,
			current_value, gain_loss, gain_loss_percent, currency
		FROM positions WHERE source_id = ? ORDER BY symbol`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions for source %s: %w", sourceID, err)
	}
	defer rows.Close()

	var positions []domain.InvestmentPosition
	for rows.Next() {
		var p domain.InvestmentPosition
		if err := rows.Scan(&p.ID, &p.SourceID, &p.Symbol, &p.ISIN, &p.Quantity,
			&p.AvgBuyPrice, &p.CurrentPrice, &p.CurrentValue,
			&p.GainLoss, &p.GainLossPercent, &p.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// ListRules retrieves all categorization rules.
func (s *Store) ListRules(ctx context.Context) ([]domain.CategoryRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, pattern, match_type, priority, source, is_active
		FROM category_rules ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.CategoryRule
	for rows.Next() {
		var r domain.CategoryRule
		if err := rows.Scan(&r.ID, &r.CategoryID, &r.Pattern, &r.MatchType,
			&r.Priority, &r.Source, &r.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// SaveRule inserts or updates a rule. The rule is validated first; an invalid
// rule never reaches the database.
func (s *Store) SaveRule(ctx context.Context, rule domain.CategoryRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (id, category_id, pattern, match_type, priority, source, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET category_id = excluded.category_id, pattern = excluded.pattern,
			match_type = excluded.match_type, priority = excluded.priority,
			source = excluded.source, is_active = excluded.is_active`,
		rule.ID, string(rule.CategoryID), rule.Pattern, string(rule.MatchType),
		rule.Priority, rule.Source, rule.IsActive)
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", rule.ID, err)
	}
	return nil
}

// FindAssignment retrieves the category assignment of one transaction.
func (s *Store) FindAssignment(ctx context.Context, transactionID string) (*domain.CategoryAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, category_id, source, confidence, assigned_at
		FROM category_assignments WHERE transaction_id = ?`, transactionID)

	var a domain.CategoryAssignment
	if err := row.Scan(&a.TransactionID, &a.CategoryID, &a.Source, &a.Confidence, &a.AssignedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment for %s: %w", transactionID, err)
	}
	return &a, nil
}

// ListAssignments retrieves assignments for the given transaction IDs, keyed
// by transaction ID. Missing IDs simply have no entry.
func (s *Store) ListAssignments(ctx context.Context, transactionIDs []string) (map[string]domain.CategoryAssignment, error) {
	assignments := make(map[string]domain.CategoryAssignment, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return assignments, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		SELECT transaction_id, category_id, source, confidence, assigned_at
		FROM category_assignments WHERE transaction_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare assignment lookup: %w", err)
	}
	defer stmt.Close()

	for _, id := range transactionIDs {
		var a domain.CategoryAssignment
		err := stmt.QueryRowContext(ctx, id).Scan(&a.TransactionID, &a.CategoryID, &a.Source, &a.Confidence, &a.AssignedAt)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up assignment for %s: %w", id, err)
		}
		assignments[a.TransactionID] = a
	}
	return assignments, nil
}

// Apply writes an assignment if the overwrite policy allows it, checking
// against the currently persisted assignment inside one database transaction.
// It reports whether the write happened.
func (s *Store) Apply(ctx context.Context, assignment domain.CategoryAssignment) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing *domain.CategoryAssignment
	row := tx.QueryRowContext(ctx, `
		SELECT transaction_id, category_id, source, confidence, assigned_at
		FROM category_assignments WHERE transaction_id = ?`, assignment.TransactionID)

	var found domain.CategoryAssignment
	switch err := row.Scan(&found.TransactionID, &found.CategoryID, &found.Source, &found.Confidence, &found.AssignedAt); {
	case err == nil:
		existing = &found
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, fmt.Errorf("failed to read existing assignment for %s: %w", assignment.TransactionID, err)
	}

	if !domain.CanOverwrite(existing, assignment.Source) {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO category_assignments (transaction_id, category_id, source, confidence, assigned_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET category_id = excluded.category_id,
			source = excluded.source, confidence = excluded.confidence, assigned_at = excluded.assigned_at`,
		assignment.TransactionID, string(assignment.CategoryID), string(assignment.Source),
		assignment.Confidence, assignment.AssignedAt); err != nil {
		return false, fmt.Errorf("failed to apply assignment for %s: %w", assignment.TransactionID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit assignment for %s: %w", assignment.TransactionID, err)
	}
	return true, nil
}

// SaveSnapshot records a net-worth snapshot keyed by calendar day. Writing the
// same day again overwrites the earlier snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot domain.NetWorthSnapshot) error {
	day := snapshot.Date.Format("2006-01-02")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO net_worth_snapshots (date, bank_total, investment_total, total, currency)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET bank_total = excluded.bank_total,
			investment_total = excluded.investment_total, total = excluded.total, currency = excluded.currency`,
		day, snapshot.BankTotal, snapshot.InvestmentTotal, snapshot.Total, snapshot.Currency)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", day, err)
	}
	return nil
}
