package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/config"
	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/importer"
	"github.com/rumor-ml/finflow/internal/logging"
	"github.com/rumor-ml/finflow/internal/prices"
	"github.com/rumor-ml/finflow/internal/registry"
	"github.com/rumor-ml/finflow/internal/store/sqlite"
	"github.com/rumor-ml/finflow/internal/ui"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	configFile = flag.String("config", "", "Configuration file (required)")
	verbose    = flag.Bool("verbose", false, "Show detailed refresh logs")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `pricesync - Refresh crypto prices and recompute ledger positions

Usage:
  pricesync [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Refresh all ledger sources with current market prices
  pricesync -config finflow.yaml

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("pricesync version %s\n", version)
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

	ui.Header("FinFlow Price Sync")

	quotes := prices.NewClient(cfg.PriceServiceURL)
	crypto := importer.NewCryptoImporter(registry.New(), st, st, st, quotes, log)

	sources, err := st.ListInvestmentSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list investment sources: %w", err)
	}

	var refreshed int
	for _, source := range sources {
		if source.Kind != domain.KindLedger {
			continue
		}
		result := crypto.Refresh(ctx, source.ID)

		hasWarnings := len(result.Errors) > 0
		if hasWarnings {
			for _, msg := range result.Errors {
				ui.Warning(fmt.Sprintf("%s: %s", source.Name, msg))
			}
		}

		positions, err := st.FindPositionsBySourceID(ctx, source.ID)
		if err != nil {
			ui.Error(fmt.Sprintf("%s: %v", source.Name, err))
			continue
		}
		var total float64
		for _, position := range positions {
			total += position.CurrentValue
		}
		ui.Success(fmt.Sprintf("%s: %d positions, %.2f %s", source.Name, len(positions), total, source.Currency))
		refreshed++
	}

	if refreshed == 0 {
		ui.Info("no ledger sources configured, nothing to refresh")
		return nil
	}

	snapshot, err := buildSnapshot(ctx, st)
	if err != nil {
		return err
	}
	if err := st.SaveSnapshot(ctx, *snapshot); err != nil {
		return fmt.Errorf("failed to save net worth snapshot: %w", err)
	}
	ui.Success(fmt.Sprintf("Net worth: %.2f %s", snapshot.Total, snapshot.Currency))

	return nil
}

// buildSnapshot totals the store into today's net-worth snapshot, same
// shape as the bank sync CLI writes.
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
