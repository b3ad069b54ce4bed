package core

import (
	"testing"
	"time"
)

func TestResolveDate(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		value  any
		want   time.Time
		wantOK bool
	}{
		{
			name:  "nil resolves to now",
			value: nil, want: now, wantOK: true,
		},
		{
			name:  "empty string resolves to now",
			value: "  ", want: now, wantOK: true,
		},
		{
			name:  "serial epoch",
			value: float64(25569), want: time.Unix(0, 0), wantOK: true,
		},
		{
			name:  "serial two days past epoch",
			value: float64(25571), want: time.Unix(2*86400, 0), wantOK: true,
		},
		{
			name:  "constructor string, zero-indexed month",
			value: "Date(2026,0,21)",
			want:  time.Date(2026, time.January, 21, 0, 0, 0, 0, time.Local), wantOK: true,
		},
		{
			name:  "constructor string mid-year",
			value: "Date(2024,5,15)",
			want:  time.Date(2024, time.June, 15, 0, 0, 0, 0, time.Local), wantOK: true,
		},
		{
			name:  "iso date",
			value: "2024-03-09",
			want:  time.Date(2024, time.March, 9, 0, 0, 0, 0, time.Local), wantOK: true,
		},
		{
			name:  "us slash date",
			value: "3/9/2024",
			want:  time.Date(2024, time.March, 9, 0, 0, 0, 0, time.Local), wantOK: true,
		},
		{
			name:  "garbage falls back to now, not ok",
			value: "not a date", want: now, wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveDate(tt.value, now)
			if ok != tt.wantOK {
				t.Fatalf("ResolveDate(%v) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ResolveDate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveDateOrNowNeverFails(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	for _, v := range []any{nil, "", "garbage", "Date(", true, []string{"x"}} {
		got := ResolveDateOrNow(v, now)
		if got.IsZero() {
			t.Errorf("ResolveDateOrNow(%v) returned zero time", v)
		}
	}
	if got := ResolveDateOrNow("garbage", now); !got.Equal(now) {
		t.Errorf("aggregation policy: got %v, want now %v", got, now)
	}
}
