package categorize

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/store"
)

// ruleCacheTTL bounds how long a loaded rule set is reused before the store
// is consulted again.
const ruleCacheTTL = 60 * time.Second

// compiledRule is a rule with its pattern pre-normalized (and pre-compiled
// for REGEX) so matching does no per-transaction preparation work.
type compiledRule struct {
	rule    domain.CategoryRule
	pattern string         // normalized, for EXACT/STARTS_WITH/CONTAINS
	regex   *regexp.Regexp // non-nil only for REGEX rules
}

// RuleEngine matches transaction descriptions against user rules loaded
// from the store. Rules are cached with a TTL; the cache is an explicit
// field of the engine, passed into pipeline construction, never a process
// global. Safe for concurrent use.
type RuleEngine struct {
	rules store.Rules

	mu           sync.Mutex
	compiled     []compiledRule
	lastLoadedAt time.Time
}

// NewRuleEngine creates an engine reading rules from the given store.
func NewRuleEngine(rules store.Rules) *RuleEngine {
	return &RuleEngine{rules: rules}
}

// Invalidate drops the cached rule set so the next match reloads.
func (e *RuleEngine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = nil
	e.lastLoadedAt = time.Time{}
}

// load returns the cached compiled rules, reloading from the store when the
// TTL has expired. Inactive rules are kept out of the compiled set; rules
// that fail to compile are rejected with an error because an unvalidatable
// rule must never be silently skipped at runtime.
func (e *RuleEngine) load(ctx context.Context) ([]compiledRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.compiled != nil && time.Since(e.lastLoadedAt) < ruleCacheTTL {
		return e.compiled, nil
	}

	rules, err := e.rules.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("stored rule failed validation: %w", err)
		}

		cr := compiledRule{rule: rule, pattern: Normalize(rule.Pattern)}
		if rule.MatchType == domain.MatchRegex {
			re, err := regexp.Compile("(?i)" + Normalize(rule.Pattern))
			if err != nil {
				return nil, fmt.Errorf("rule %s: regex failed to compile: %w", rule.ID, err)
			}
			cr.regex = re
		}
		compiled = append(compiled, cr)
	}

	// Higher priority checked first; stable sort keeps store order for
	// equal priorities, which makes matching deterministic.
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority > compiled[j].rule.Priority
	})

	e.compiled = compiled
	e.lastLoadedAt = time.Now()
	return compiled, nil
}

// Match returns the first active rule matching the description, highest
// priority first. sourceID filters rules that declare a source restriction.
func (e *RuleEngine) Match(ctx context.Context, description, sourceID string) (*domain.CategoryRule, error) {
	compiled, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(description)
	for _, cr := range compiled {
		if cr.rule.Source != "" && cr.rule.Source != sourceID {
			continue
		}
		if cr.matches(normalized) {
			rule := cr.rule
			return &rule, nil
		}
	}
	return nil, nil
}

// Rules returns the active rules in match order, for use as AI context.
func (e *RuleEngine) Rules(ctx context.Context) ([]domain.CategoryRule, error) {
	compiled, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	rules := make([]domain.CategoryRule, len(compiled))
	for i, cr := range compiled {
		rules[i] = cr.rule
	}
	return rules, nil
}

func (cr *compiledRule) matches(normalizedDesc string) bool {
	switch cr.rule.MatchType {
	case domain.MatchExact:
		return normalizedDesc == cr.pattern
	case domain.MatchStartsWith:
		return strings.HasPrefix(normalizedDesc, cr.pattern)
	case domain.MatchContains:
		return strings.Contains(normalizedDesc, cr.pattern)
	case domain.MatchRegex:
		return cr.regex.MatchString(normalizedDesc)
	}
	return false
}
