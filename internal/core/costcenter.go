package core

import (
	"regexp"
	"strings"
)

// CostCenter identifies a point of sale by its 5-digit accounting code
// and display name.
type CostCenter struct {
	Code string
	Name string
}

// Resolution records how a row was attributed to a cost center.
type Resolution int

const (
	// ResolvedDirect means the row carried a usable cost-center field.
	ResolvedDirect Resolution = iota
	// ResolvedScan means a configured code or name was found in the
	// row's serialized content.
	ResolvedScan
	// ResolvedDefault means nothing matched and the cluster's primary
	// cost center was assumed. Callers should count these for audit:
	// a defaulted row may be misattributed spend.
	ResolvedDefault
)

// The sheet spells the company abbreviation inconsistently
// ("Jbs 22348 blumentrit"); display names carry it uppercased.
var jbsPattern = regexp.MustCompile(`(?i)\bjbs\b`)

// costCenterKeys is the lookup order for the direct cost-center field
// and its display-name variant.
var costCenterKeys = []string{"costcenter", "costcentername"}

// ResolveCostCenter maps a row to a canonical cost-center identity.
// Direct data always wins when present; scanning the whole row is an
// expensive last resort for sparse legacy rows; the configured fallback
// keeps every row attributable to some bucket rather than silently
// dropped from aggregation.
func ResolveCostCenter(r Row, c Cluster) (CostCenter, Resolution) {
	if raw := strings.TrimSpace(r.FirstString(costCenterKeys...)); raw != "" {
		return CostCenter{Code: extractCode(raw), Name: cleanCostCenterName(raw)}, ResolvedDirect
	}
	if len(c.CostCenters) > 1 {
		content := strings.ToLower(r.serializedContent())
		for _, cc := range c.CostCenters {
			if cc.Code != "" && strings.Contains(content, cc.Code) {
				return cc, ResolvedScan
			}
			if cc.Name != "" && strings.Contains(content, strings.ToLower(cc.Name)) {
				return cc, ResolvedScan
			}
		}
	}
	return c.Primary(), ResolvedDefault
}

// extractCode returns the first run of exactly 5 digits in s, or "".
func extractCode(s string) string {
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start == 5 {
			return s[start:i]
		}
		start = -1
	}
	return ""
}

// cleanCostCenterName uppercases the literal JBS abbreviation and
// passes everything else through untouched.
func cleanCostCenterName(s string) string {
	return jbsPattern.ReplaceAllString(strings.TrimSpace(s), "JBS")
}

// serializedContent concatenates every raw field value, formatted
// variants included, for content scanning.
func (r Row) serializedContent() string {
	var b strings.Builder
	for _, v := range r.Fields {
		b.WriteString(ValueString(v))
		b.WriteByte(' ')
	}
	return b.String()
}
