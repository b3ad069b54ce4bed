package core

import "testing"

func TestRowAmount(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		values  []any
		want    string
	}{
		{
			name:    "sheet header with typo",
			headers: []string{"AMT W/ VAt"}, values: []any{"100.50"},
			want: "100.5",
		},
		{
			name:    "numeric cell",
			headers: []string{"AMT W/ VAT"}, values: []any{float64(250)},
			want: "250",
		},
		{
			name:    "plain amount alias",
			headers: []string{"Amount"}, values: []any{"1,234.56"},
			want: "1234.56",
		},
		{
			name:    "currency sign stripped",
			headers: []string{"Amount"}, values: []any{"₱500"},
			want: "500",
		},
		{
			name:    "trailing junk uses numeric prefix",
			headers: []string{"Amount"}, values: []any{"100.50 php"},
			want: "100.5",
		},
		{
			name:    "non-numeric counts as zero",
			headers: []string{"AMT W/ VAt"}, values: []any{"bad"},
			want: "0",
		},
		{
			name:    "blank falls through to next alias",
			headers: []string{"AMT W/ VAt", "Amount"}, values: []any{"", "75"},
			want: "75",
		},
		{
			name:    "no amount field at all",
			headers: []string{"Date"}, values: []any{"2024-01-05"},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Ingest(tableOf(tt.headers, tt.values), "s")[0]
			if got := RowAmount(r).String(); got != tt.want {
				t.Errorf("RowAmount() = %s, want %s", got, tt.want)
			}
		})
	}
}
