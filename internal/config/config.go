// Package config loads the finflow.yaml configuration consumed by the sync
// CLIs: store location, external service settings, and the accounts and
// sources to sync.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/finflow/internal/domain"
)

// Config is the root configuration structure.
type Config struct {
	// DatabasePath locates the sqlite store. Relative paths resolve
	// against the working directory.
	DatabasePath string `yaml:"database_path"`

	// AIModel names the text-generation model for the categorization
	// pipeline. Empty disables the AI stage.
	AIModel string `yaml:"ai_model"`

	// PriceServiceURL overrides the quote endpoint. Empty selects the
	// public default.
	PriceServiceURL string `yaml:"price_service_url"`

	Accounts          []AccountConfig          `yaml:"accounts"`
	Sources           []SourceConfig           `yaml:"sources"`
	InvestmentSources []InvestmentSourceConfig `yaml:"investment_sources"`

	// RulesFile optionally seeds categorization rules from a YAML file on
	// startup.
	RulesFile string `yaml:"rules_file"`
}

// AccountConfig declares a user account.
type AccountConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Currency string `yaml:"currency"`
}

// SourceConfig declares a bank export source.
type SourceConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	ParserKey string `yaml:"parser_key"`
	AccountID string `yaml:"account_id"`
	// Path is the export file (or glob) the bank sync CLI reads.
	Path string `yaml:"path"`
}

// InvestmentSourceConfig declares an investment or crypto source.
type InvestmentSourceConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	ParserKey string `yaml:"parser_key"`
	Kind      string `yaml:"kind"`
	Currency  string `yaml:"currency"`
	Path      string `yaml:"path"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}
	return cfg, nil
}

// Parse unmarshals and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config (check syntax and field names): %w", err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "finflow.db"
	}

	accountIDs := make(map[string]struct{}, len(cfg.Accounts))
	for i, account := range cfg.Accounts {
		if account.ID == "" || account.Name == "" {
			return nil, fmt.Errorf("account %d: id and name are required", i)
		}
		if !domain.ValidAccountType(domain.AccountType(account.Type)) {
			return nil, fmt.Errorf("account %s: invalid type %q", account.ID, account.Type)
		}
		accountIDs[account.ID] = struct{}{}
	}

	for i, source := range cfg.Sources {
		if source.ID == "" || source.ParserKey == "" {
			return nil, fmt.Errorf("source %d: id and parser_key are required", i)
		}
		if source.AccountID != "" {
			if _, ok := accountIDs[source.AccountID]; !ok {
				return nil, fmt.Errorf("source %s: unknown account %q", source.ID, source.AccountID)
			}
		}
	}

	for i, source := range cfg.InvestmentSources {
		if source.ID == "" || source.ParserKey == "" {
			return nil, fmt.Errorf("investment source %d: id and parser_key are required", i)
		}
		switch domain.SourceKind(source.Kind) {
		case domain.KindSnapshot, domain.KindLedger:
		default:
			return nil, fmt.Errorf("investment source %s: invalid kind %q (must be snapshot or ledger)", source.ID, source.Kind)
		}
	}

	return &cfg, nil
}
