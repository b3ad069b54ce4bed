package core

import "strings"

// CategoryOther is the classification for rows whose account name
// matches no rule.
const CategoryOther = "Other"

// CategoryRule classifies a transaction by substring tests against the
// lowercased account name. Every substring in All must be present; when
// Any is non-empty at least one of those must be present too.
type CategoryRule struct {
	Name string
	All  []string
	Any  []string
}

// categoryRules is evaluated in order; the first matching rule wins.
// The bakery rules must stay ahead of the generic "supplies" rule.
var categoryRules = []CategoryRule{
	{Name: "Bakery Supplies (Consumable)", All: []string{"bakery", "consumable"}},
	{Name: "Bakery Supplies (Durable)", All: []string{"bakery", "durable"}},
	{Name: "Bakery Supplies", All: []string{"bakery"}},
	{Name: "Ingredients", Any: []string{"perishable", "ingredient"}},
	{Name: "Packaging", Any: []string{"packaging"}},
	{Name: "Cleaning Supplies", Any: []string{"cleaning"}},
	{Name: "Transportation", Any: []string{"transport"}},
	{Name: "Insurance", Any: []string{"insurance"}},
	{Name: "Licenses", Any: []string{"license"}},
	{Name: "Medical", Any: []string{"medical"}},
	{Name: "Utilities", Any: []string{"utilities"}},
	{Name: "Maintenance", Any: []string{"equipment", "maint"}},
	{Name: "Office Supplies", Any: []string{"stationary", "supplies"}},
	{Name: "Printing", Any: []string{"printing", "photocopy"}},
	{Name: "Communications", Any: []string{"mobile", "data"}},
	{Name: "Meeting Expenses", Any: []string{"meeting"}},
	{Name: "Donations", Any: []string{"donation"}},
	{Name: "Legal Fees", Any: []string{"legal"}},
}

// Categorize maps an account name to its expense category.
func Categorize(accountName string) string {
	if strings.TrimSpace(accountName) == "" {
		return CategoryOther
	}
	lower := strings.ToLower(accountName)
	for _, rule := range categoryRules {
		if rule.matches(lower) {
			return rule.Name
		}
	}
	return CategoryOther
}

func (cr CategoryRule) matches(lower string) bool {
	for _, sub := range cr.All {
		if !strings.Contains(lower, sub) {
			return false
		}
	}
	if len(cr.Any) == 0 {
		return true
	}
	for _, sub := range cr.Any {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
