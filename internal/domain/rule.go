package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MatchType defines how a rule pattern is matched against a normalized
// transaction description.
type MatchType string

const (
	MatchExact      MatchType = "EXACT"
	MatchStartsWith MatchType = "STARTS_WITH"
	MatchContains   MatchType = "CONTAINS"
	MatchRegex      MatchType = "REGEX"
)

var validMatchTypes = map[MatchType]struct{}{
	MatchExact: {}, MatchStartsWith: {}, MatchContains: {}, MatchRegex: {},
}

// CategoryRule is a user-defined categorization rule.
//
// Invariant: the pattern validates at creation and at every update. A rule
// that fails validation is rejected outright, never silently disabled at
// match time.
type CategoryRule struct {
	ID         string     `json:"id"`
	CategoryID CategoryID `json:"categoryId"`
	Pattern    string     `json:"pattern"`
	MatchType  MatchType  `json:"matchType"`
	// Priority orders rule evaluation, higher checked first.
	Priority int `json:"priority"`
	// Source optionally restricts the rule to transactions imported from one
	// data source. Empty means the rule applies everywhere.
	Source   string `json:"source,omitempty"`
	IsActive bool   `json:"isActive"`
}

// NewCategoryRule creates a validated rule.
func NewCategoryRule(id string, categoryID CategoryID, pattern string, matchType MatchType, priority int) (*CategoryRule, error) {
	r := &CategoryRule{
		ID:         id,
		CategoryID: categoryID,
		Pattern:    pattern,
		MatchType:  matchType,
		Priority:   priority,
		IsActive:   true,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks all rule invariants. REGEX patterns must compile with the
// case-insensitive flag the engine matches with.
func (r *CategoryRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}
	if !ValidCategory(r.CategoryID) {
		return fmt.Errorf("rule %s: invalid category %q", r.ID, r.CategoryID)
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("rule %s: pattern cannot be empty", r.ID)
	}
	if _, ok := validMatchTypes[r.MatchType]; !ok {
		return fmt.Errorf("rule %s: invalid match type %q (must be EXACT, STARTS_WITH, CONTAINS or REGEX)", r.ID, r.MatchType)
	}
	if r.MatchType == MatchRegex {
		if _, err := regexp.Compile("(?i)" + r.Pattern); err != nil {
			return fmt.Errorf("rule %s: invalid regex pattern %q: %w", r.ID, r.Pattern, err)
		}
	}
	return nil
}

// AssignmentSource records which actor assigned a category.
type AssignmentSource string

const (
	SourceBank   AssignmentSource = "BANK"
	SourceAuto   AssignmentSource = "AUTO"
	SourceManual AssignmentSource = "MANUAL"
)

// CategoryAssignment links a transaction to a category. It is a value object
// keyed by transaction ID; the overwrite policy below is the only mutation
// path.
type CategoryAssignment struct {
	TransactionID string           `json:"transactionId"`
	CategoryID    CategoryID       `json:"categoryId"`
	Source        AssignmentSource `json:"source"`
	Confidence    float64          `json:"confidence"`
	AssignedAt    time.Time        `json:"assignedAt"`
}

// NewCategoryAssignment creates a validated assignment.
func NewCategoryAssignment(transactionID string, categoryID CategoryID, source AssignmentSource, confidence float64) (*CategoryAssignment, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID cannot be empty")
	}
	if !ValidCategory(categoryID) {
		return nil, fmt.Errorf("invalid category %q", categoryID)
	}
	switch source {
	case SourceBank, SourceAuto, SourceManual:
	default:
		return nil, fmt.Errorf("invalid assignment source %q", source)
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence must be in [0,1], got %f", confidence)
	}
	return &CategoryAssignment{
		TransactionID: transactionID,
		CategoryID:    categoryID,
		Source:        source,
		Confidence:    confidence,
		AssignedAt:    time.Now(),
	}, nil
}

// assignmentRank orders sources for the overwrite policy. Higher rank wins.
var assignmentRank = map[AssignmentSource]int{
	SourceAuto:   0,
	SourceBank:   1,
	SourceManual: 2,
}

// CanOverwrite reports whether an assignment from source may replace the
// existing assignment. MANUAL is overwritten only by MANUAL; BANK only by
// MANUAL; AUTO by anything. AUTO over AUTO keeps the latest write so the
// transfer stage can refine earlier automatic results.
func CanOverwrite(existing *CategoryAssignment, source AssignmentSource) bool {
	if existing == nil {
		return true
	}
	if existing.Source == SourceBank {
		return source == SourceManual
	}
	return assignmentRank[source] >= assignmentRank[existing.Source]
}
