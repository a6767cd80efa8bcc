package categorize

import (
	"testing"

	"github.com/rumor-ml/finflow/internal/domain"
)

func TestParseRuleFile(t *testing.T) {
	data := []byte(`rules:
  - id: rule-salary
    category: cat-salary
    pattern: vir salaire
    match: CONTAINS
    priority: 10
  - id: rule-netflix
    category: cat-subscriptions
    pattern: netflix|spotify
    match: REGEX
    priority: 5
    active: false
  - id: rule-scoped
    category: cat-groceries
    pattern: carrefour
    match: STARTS_WITH
    source: src-bourso
`)

	rules, err := ParseRuleFile(data)
	if err != nil {
		t.Fatalf("ParseRuleFile() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}

	salary := rules[0]
	if salary.ID != "rule-salary" || salary.CategoryID != domain.CategorySalary {
		t.Errorf("rules[0] = %+v", salary)
	}
	if salary.Priority != 10 || !salary.IsActive {
		t.Errorf("rules[0] priority/active = %d/%v, want 10/true", salary.Priority, salary.IsActive)
	}

	if rules[1].IsActive {
		t.Error("rules[1] should be inactive")
	}
	if rules[2].Source != "src-bourso" {
		t.Errorf("rules[2].Source = %q, want src-bourso", rules[2].Source)
	}
}

func TestParseRuleFile_InvalidRuleRejectsFile(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "unknown category",
			data: "rules:\n  - id: r-1\n    category: cat-nope\n    pattern: x\n    match: CONTAINS\n",
		},
		{
			name: "bad regex",
			data: "rules:\n  - id: r-1\n    category: cat-other\n    pattern: '([unclosed'\n    match: REGEX\n",
		},
		{
			name: "missing id",
			data: "rules:\n  - category: cat-other\n    pattern: x\n    match: CONTAINS\n",
		},
		{
			name: "invalid yaml",
			data: "rules: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRuleFile([]byte(tt.data)); err == nil {
				t.Error("ParseRuleFile() expected error, got nil")
			}
		})
	}
}

func TestParseRuleFile_Empty(t *testing.T) {
	rules, err := ParseRuleFile([]byte("rules: []\n"))
	if err != nil {
		t.Fatalf("ParseRuleFile() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("got %d rules, want 0", len(rules))
	}
}
