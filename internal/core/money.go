// Package core implements the data reconciliation and aggregation
// pipeline behind the expense dashboard: header normalization, row
// ingestion, date and cost-center resolution, cluster filtering and
// time-windowed aggregation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// amountKeys is the fallback alias order for the VAT-inclusive amount
// column, defined once as data. The sheet has carried "AMT W/ VAt",
// "AMT W/ VAT" (which collide after normalization) and a plain
// "Amount" at different times.
var amountKeys = []string{"amtwvat", "amount"}

// RowAmount extracts the transaction amount from a row. A missing,
// blank or non-numeric value yields zero, never a skipped row, so
// transaction counts always match row counts even when a sum cannot
// include every value.
func RowAmount(r Row) decimal.Decimal {
	for _, k := range amountKeys {
		v, ok := r.Norm(k)
		if !ok {
			continue
		}
		if d, present := parseAmount(v); present {
			return d
		}
	}
	return decimal.Zero
}

// parseAmount converts a raw cell value to a decimal. present is false
// only when the value is absent or blank; a present but non-numeric
// value parses as zero rather than falling through to a later alias.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Zero, false
		}
		s = strings.TrimPrefix(s, "₱")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
		if p := numericPrefix(s); p != "" {
			if d, err := decimal.NewFromString(p); err == nil {
				return d, true
			}
		}
		return decimal.Zero, true
	default:
		return decimal.Zero, false
	}
}

// numericPrefix returns the leading decimal-number portion of s, e.g.
// "100.50 php" -> "100.50". Empty when s does not start with a number.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	return s[:i]
}
