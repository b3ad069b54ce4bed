package core

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		account string
		want    string
	}{
		{"Bakery Consumable Items", "Bakery Supplies (Consumable)"},
		{"Bakery Durable Equipment", "Bakery Supplies (Durable)"},
		{"Bakery Flour", "Bakery Supplies"},
		{"Perishable Goods", "Ingredients"},
		{"Ingredient Restock", "Ingredients"},
		{"Packaging Boxes", "Packaging"},
		{"Cleaning Agents", "Cleaning Supplies"},
		{"Transportation Allowance", "Transportation"},
		{"Fire Insurance Premium", "Insurance"},
		{"Business License Renewal", "Licenses"},
		{"Medical Checkup", "Medical"},
		{"Utilities Bill", "Utilities"},
		{"Equipment Repair", "Maintenance"},
		{"Stationary and Forms", "Office Supplies"},
		{"Printing Services", "Printing"},
		{"Mobile Load", "Communications"},
		{"Meeting Refreshments", "Meeting Expenses"},
		{"Donation Drive", "Donations"},
		{"Legal Consultation", "Legal Fees"},
		{"Miscellaneous", "Other"},
		{"", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			if got := Categorize(tt.account); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.account, got, tt.want)
			}
		})
	}
}

// The bakery rules must win over the generic supplies rule even though
// "supplies" appears in the account name.
func TestCategorizeRuleOrder(t *testing.T) {
	if got := Categorize("Bakery Supplies Consumable"); got != "Bakery Supplies (Consumable)" {
		t.Errorf("got %q, want bakery rule to win over supplies rule", got)
	}
}
