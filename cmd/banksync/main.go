package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/categorize"
	"github.com/rumor-ml/finflow/internal/config"
	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/importer"
	"github.com/rumor-ml/finflow/internal/logging"
	"github.com/rumor-ml/finflow/internal/prices"
	"github.com/rumor-ml/finflow/internal/registry"
	"github.com/rumor-ml/finflow/internal/scanner"
	"github.com/rumor-ml/finflow/internal/store/sqlite"
	"github.com/rumor-ml/finflow/internal/ui"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	configFile = flag.String("config", "", "Configuration file (required)")
	verbose    = flag.Bool("verbose", false, "Show detailed import logs")
	skipAI     = flag.Bool("skip-ai", false, "Skip AI categorization even when a model is configured")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `banksync - Import bank and investment exports into the local store

Usage:
  banksync [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Sync every source declared in the config
  banksync -config finflow.yaml

  # Sync without the AI categorization stage
  banksync -config finflow.yaml -skip-ai

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("banksync version %s\n", version)
		os.Exit(0)
	}

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	log := logging.New()
	if !*verbose {
		log = log.Level(zerolog.WarnLevel)
	}

	st, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ui.Header("FinFlow Bank Sync")

	ui.Step(1, 4, "Preparing store")
	if err := seed(ctx, st, cfg); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("%d accounts, %d sources configured", len(cfg.Accounts), len(cfg.Sources)+len(cfg.InvestmentSources)))

	reg := registry.New()
	engine := categorize.NewRuleEngine(st)

	var ai *categorize.AICategorizer
	if cfg.AIModel != "" && !*skipAI {
		gemini, err := categorize.NewGeminiClient(ctx, cfg.AIModel)
		if err != nil {
			ui.Warning(fmt.Sprintf("AI categorization disabled: %v", err))
		} else {
			ai = categorize.NewAICategorizer(gemini)
		}
	}
	pipeline := categorize.NewPipeline(engine, ai, st, st, st, log)

	ui.Step(2, 4, "Importing bank sources")
	bankImporter := importer.NewTransactionImporter(reg, st, st, st, log)
	for _, source := range cfg.Sources {
		if source.Path == "" {
			continue
		}
		syncBankSource(ctx, bankImporter, pipeline, source)
	}

	ui.Step(3, 4, "Importing investment sources")
	quotes := prices.NewClient(cfg.PriceServiceURL)
	positionImporter := importer.NewPositionImporter(reg, st, st, log)
	cryptoImporter := importer.NewCryptoImporter(reg, st, st, st, quotes, log)
	for _, source := range cfg.InvestmentSources {
		if source.Path == "" {
			continue
		}
		syncInvestmentSource(ctx, positionImporter, cryptoImporter, source)
	}

	ui.Step(4, 4, "Recording net worth")
	snapshot, err := buildSnapshot(ctx, st)
	if err != nil {
		return err
	}
	if err := st.SaveSnapshot(ctx, *snapshot); err != nil {
		return fmt.Errorf("failed to save net worth snapshot: %w", err)
	}
	ui.Success(fmt.Sprintf("Net worth: %.2f %s (bank %.2f, investments %.2f)",
		snapshot.Total, snapshot.Currency, snapshot.BankTotal, snapshot.InvestmentTotal))

	return nil
}

// seed pushes the configured accounts, sources and rules into the store so
// imports can reference them. Seeding is idempotent; rerunning updates
// names and parser keys in place.
func seed(ctx context.Context, st *sqlite.Store, cfg *config.Config) error {
	for _, ac := range cfg.Accounts {
		account, err := domain.NewAccount(ac.ID, ac.Name, domain.AccountType(ac.Type), ac.Currency)
		if err != nil {
			return err
		}
		if err := st.SaveAccount(ctx, *account); err != nil {
			return err
		}
	}

	for _, sc := range cfg.Sources {
		source := domain.DataSource{
			ID:              sc.ID,
			Name:            sc.Name,
			ParserKey:       sc.ParserKey,
			LinkedAccountID: sc.AccountID,
		}
		if err := st.SaveDataSource(ctx, source); err != nil {
			return err
		}
	}

	for _, sc := range cfg.InvestmentSources {
		source := domain.InvestmentSource{
			ID:        sc.ID,
			Name:      sc.Name,
			ParserKey: sc.ParserKey,
			Kind:      domain.SourceKind(sc.Kind),
			Currency:  sc.Currency,
		}
		if err := st.SaveInvestmentSource(ctx, source); err != nil {
			return err
		}
	}

	if cfg.RulesFile != "" {
		rules, err := categorize.LoadRuleFile(cfg.RulesFile)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if err := st.SaveRule(ctx, rule); err != nil {
				return err
			}
		}
	}

	return nil
}

func syncBankSource(ctx context.Context, imp *importer.TransactionImporter, pipeline *categorize.Pipeline, source config.SourceConfig) {
	for _, path := range scanner.Expand(source.Path) {
		content, err := os.ReadFile(path)
		if err != nil {
			ui.Error(fmt.Sprintf("%s: %v", source.Name, err))
			continue
		}

		result, imported := imp.Import(ctx, source.ID, content)
		reportResult(source.Name, filepath.Base(path), result)
		if result.Imported == 0 {
			continue
		}

		pipelineResult, err := pipeline.Run(ctx, imported, source.ID)
		if err != nil {
			ui.Warning(fmt.Sprintf("%s: categorization failed: %v", source.Name, err))
			continue
		}
		ui.Info(fmt.Sprintf("categorized: %d rules, %d bank, %d ai, %d transfers (%d applied)",
			pipelineResult.ByRule, pipelineResult.ByBankHint, pipelineResult.ByAI,
			pipelineResult.Transfers, pipelineResult.Applied))
		for _, warning := range pipelineResult.Warnings {
			ui.Warning(warning)
		}
	}
}

func syncInvestmentSource(ctx context.Context, positions *importer.PositionImporter, crypto *importer.CryptoImporter, source config.InvestmentSourceConfig) {
	for _, path := range scanner.Expand(source.Path) {
		content, err := os.ReadFile(path)
		if err != nil {
			ui.Error(fmt.Sprintf("%s: %v", source.Name, err))
			continue
		}

		var result *importer.Result
		switch domain.SourceKind(source.Kind) {
		case domain.KindLedger:
			result = crypto.Import(ctx, source.ID, content)
		default:
			result = positions.Import(ctx, source.ID, content)
		}
		reportResult(source.Name, filepath.Base(path), result)
	}
}

func reportResult(sourceName, fileName string, result *importer.Result) {
	if result.Imported == 0 && result.Skipped == 0 && len(result.Errors) > 0 {
		ui.Error(fmt.Sprintf("%s (%s): %s", sourceName, fileName, result.Errors[0]))
		return
	}
	ui.Success(fmt.Sprintf("%s (%s): %d imported, %d skipped", sourceName, fileName, result.Imported, result.Skipped))
	for _, msg := range result.Errors {
		ui.Warning(msg)
	}
}

// buildSnapshot totals the store into today's net-worth snapshot. Bank
// balances are derived from the full transaction history; investment value
// is the sum of current position values.
func buildSnapshot(ctx context.Context, st *sqlite.Store) (*domain.NetWorthSnapshot, error) {
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	currency := "EUR"
	var bankTotal float64
	for _, account := range accounts {
		if account.Currency != "" {
			currency = account.Currency
		}
		transactions, err := st.FindByAccountID(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions for %s: %w", account.ID, err)
		}
		for _, txn := range transactions {
			bankTotal += txn.SignedAmount()
		}
	}

	sources, err := st.ListInvestmentSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list investment sources: %w", err)
	}

	var investmentTotal float64
	for _, source := range sources {
		positions, err := st.FindPositionsBySourceID(ctx, source.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load positions for %s: %w", source.ID, err)
		}
		for _, position := range positions {
			investmentTotal += position.CurrentValue
		}
	}

	return &domain.NetWorthSnapshot{
		Date:            time.Now(),
		BankTotal:       bankTotal,
		InvestmentTotal: investmentTotal,
		Total:           bankTotal + investmentTotal,
		Currency:        currency,
	}, nil
}
