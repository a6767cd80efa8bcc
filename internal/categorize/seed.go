package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/finflow/internal/domain"
)

// ruleSpec is the YAML shape of one seeded rule.
type ruleSpec struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
	Match    string `yaml:"match"`
	Priority int    `yaml:"priority"`
	Source   string `yaml:"source"`
	Active   *bool  `yaml:"active"`
}

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// ParseRuleFile parses a YAML rule seed file into validated rules. Every
// rule must validate; an unvalidatable rule rejects the whole file rather
// than being skipped.
func ParseRuleFile(data []byte) ([]domain.CategoryRule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	rules := make([]domain.CategoryRule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		rule := domain.CategoryRule{
			ID:         spec.ID,
			CategoryID: domain.CategoryID(spec.Category),
			Pattern:    spec.Pattern,
			MatchType:  domain.MatchType(spec.Match),
			Priority:   spec.Priority,
			Source:     spec.Source,
			IsActive:   true,
		}
		if spec.Active != nil {
			rule.IsActive = *spec.Active
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRuleFile reads and parses a rule seed file from disk.
func LoadRuleFile(path string) ([]domain.CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rules, err := ParseRuleFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return rules, nil
}
