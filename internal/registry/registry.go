// Package registry maps parser keys to parser instances. Adding an
// institution means adding one parser package and one entry here; sources
// reference parsers only through their key.
package registry

import (
	"fmt"
	"sort"

	"github.com/rumor-ml/finflow/internal/parser"
	"github.com/rumor-ml/finflow/internal/parsers/binance"
	"github.com/rumor-ml/finflow/internal/parsers/boursedirect"
	"github.com/rumor-ml/finflow/internal/parsers/boursobank"
	"github.com/rumor-ml/finflow/internal/parsers/creditagri"
	"github.com/rumor-ml/finflow/internal/parsers/fortuneo"
	"github.com/rumor-ml/finflow/internal/parsers/linxea"
	"github.com/rumor-ml/finflow/internal/parsers/ofx"
)

// Registry holds the closed set of known parsers keyed by identifier.
type Registry struct {
	banks       map[string]parser.BankParser
	investments map[string]parser.InvestmentParser
}

// New creates a registry with all built-in parsers registered.
func New() *Registry {
	r := &Registry{
		banks:       make(map[string]parser.BankParser),
		investments: make(map[string]parser.InvestmentParser),
	}

	r.RegisterBank(boursobank.New())
	r.RegisterBank(creditagri.New())
	r.RegisterBank(fortuneo.New())
	r.RegisterBank(ofx.New())

	r.RegisterInvestment(linxea.New())
	r.RegisterInvestment(boursedirect.New())
	r.RegisterInvestment(binance.New())

	return r
}

// RegisterBank adds a bank parser. A later registration under the same key
// replaces the earlier one.
func (r *Registry) RegisterBank(p parser.BankParser) {
	r.banks[p.Key()] = p
}

// RegisterInvestment adds an investment parser.
func (r *Registry) RegisterInvestment(p parser.InvestmentParser) {
	r.investments[p.Key()] = p
}

// Bank returns the bank parser registered under key.
func (r *Registry) Bank(key string) (parser.BankParser, error) {
	p, ok := r.banks[key]
	if !ok {
		return nil, fmt.Errorf("unknown bank parser key %q (known: %v)", key, r.BankKeys())
	}
	return p, nil
}

// Investment returns the investment parser registered under key.
func (r *Registry) Investment(key string) (parser.InvestmentParser, error) {
	p, ok := r.investments[key]
	if !ok {
		return nil, fmt.Errorf("unknown investment parser key %q (known: %v)", key, r.InvestmentKeys())
	}
	return p, nil
}

// BankKeys returns the registered bank parser keys, sorted.
func (r *Registry) BankKeys() []string {
	return sortedKeys(r.banks)
}

// InvestmentKeys returns the registered investment parser keys, sorted.
func (r *Registry) InvestmentKeys() []string {
	return sortedKeys(r.investments)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
