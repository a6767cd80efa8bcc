package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNotSupported is returned by the unimplemented side of an
// InvestmentParser (positions for ledger sources, transactions for
// snapshot sources).
var ErrNotSupported = errors.New("operation not supported by this parser")

// ParseAmount converts an export's numeric string to a float64, best-effort.
//
// Handles the conventions seen across bank exports: surrounding whitespace
// (including non-breaking spaces used as thousands separators), decimal
// comma, and comma-as-thousands. When both a comma and a dot are present the
// dot is taken as the decimal separator and commas are dropped; a lone comma
// is treated as the decimal separator. Unparseable input yields 0, never an
// error: numeric parsing is best-effort by contract.
func ParseAmount(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return 0
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		// "1,234.56": comma is a thousands separator only because a dot
		// is also present.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		// "45,50": decimal comma.
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// dateLayouts are tried in order by ParseDate. Exports use either the
// French DD/MM/YYYY convention or ISO dates.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date cell from an export file. Unlike ParseAmount this
// returns an error: a row without a parseable date has no usable identity
// and must be skipped by the caller.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, errors.New("empty date")
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
