package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWindowStarts(t *testing.T) {
	// A Wednesday.
	now := time.Date(2026, time.August, 26, 15, 30, 0, 0, time.Local)

	if got, want := WeekStart(now), time.Date(2026, time.August, 23, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("WeekStart = %v, want Sunday %v", got, want)
	}
	if got, want := MonthStart(now), time.Date(2026, time.August, 1, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("MonthStart = %v, want %v", got, want)
	}
	if got, want := YearStart(now), time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("YearStart = %v, want %v", got, want)
	}

	// A Sunday is its own week start.
	sunday := time.Date(2026, time.August, 23, 9, 0, 0, 0, time.Local)
	if got := WeekStart(sunday); !got.Equal(time.Date(2026, time.August, 23, 0, 0, 0, 0, time.Local)) {
		t.Errorf("WeekStart on a Sunday = %v", got)
	}
}

func TestAggregateWindows(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.Local)

	rows := Ingest(tableOf(
		[]string{"Date", "Amount"},
		[]any{"2026-08-25", "10"}, // this week
		[]any{"2026-08-03", "20"}, // this month, not this week
		[]any{"2026-02-01", "40"}, // this year only
		[]any{"2025-12-31", "80"}, // all-time only
	), "s")

	s := Aggregate(rows, now)
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"Total", s.Total, "150"},
		{"ThisWeek", s.ThisWeek, "10"},
		{"ThisMonth", s.ThisMonth, "30"},
		{"ThisYear", s.ThisYear, "70"},
	}
	for _, c := range checks {
		if c.got.String() != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", s.TransactionCount)
	}
}

// The end-to-end reconciliation scenario: a serial date with a parseable
// amount plus a constructor date with a garbage amount.
func TestAggregateEndToEnd(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)

	rows := Ingest(tableOf(
		[]string{"Date", "AMT W/ VAt", "Account Name"},
		[]any{float64(25571), "100.50", "Bakery Consumable Items"},
		[]any{"Date(2024,5,15)", "bad", "Utilities Bill"},
	), "s")

	s := Aggregate(rows, now)
	if s.Total.String() != "100.5" {
		t.Errorf("Total = %s, want 100.5 (bad amount contributes 0)", s.Total)
	}
	if s.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2 (bad rows are counted, not skipped)", s.TransactionCount)
	}

	cats := BreakdownByCategory(rows)
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2", len(cats))
	}
	if cats[0].Name != "Bakery Supplies (Consumable)" || cats[0].Total.String() != "100.5" {
		t.Errorf("top category = %s %s", cats[0].Name, cats[0].Total)
	}
	if cats[1].Name != "Utilities" || !cats[1].Total.IsZero() {
		t.Errorf("second category = %s %s, want Utilities 0", cats[1].Name, cats[1].Total)
	}
}

// Internal consistency: the category breakdown and the snapshot are
// projections of the same pass, so their totals must agree exactly.
func TestBreakdownSumsMatchTotal(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)
	rows := Ingest(tableOf(
		[]string{"Date", "Amount", "Account Name"},
		[]any{"2026-08-25", "10.10", "Bakery Consumable"},
		[]any{"2026-08-24", "20.25", "Utilities Bill"},
		[]any{"2026-08-23", "0.65", "Utilities Bill"},
		[]any{"2026-08-22", "junk", "Unknown Account"},
	), "s")

	total := Aggregate(rows, now).Total
	sum := decimal.Zero
	for _, c := range BreakdownByCategory(rows) {
		sum = sum.Add(c.Total)
	}
	if !sum.Equal(total) {
		t.Errorf("sum of category totals %s != total balance %s", sum, total)
	}
}

func TestBreakdownByCategoryStableTies(t *testing.T) {
	rows := Ingest(tableOf(
		[]string{"Amount", "Account Name"},
		[]any{"5", "Packaging Boxes"},
		[]any{"5", "Cleaning Agents"},
		[]any{"9", "Utilities Bill"},
	), "s")

	cats := BreakdownByCategory(rows)
	want := []string{"Utilities", "Packaging", "Cleaning Supplies"}
	for i, name := range want {
		if cats[i].Name != name {
			t.Errorf("rank %d = %s, want %s (ties keep encounter order)", i, cats[i].Name, name)
		}
	}
}

func TestBreakdownByCostCenter(t *testing.T) {
	cluster := Cluster{Key: "kalentong", Name: "Kalentong",
		CostCenters: []CostCenter{
			{Code: "22350", Name: "Jbs 22350 kalentong"},
			{Code: "23326", Name: "Jbs 23326 kalentong"},
		}}

	rows := Ingest(tableOf(
		[]string{"Cost center", "Amount", "Account Name"},
		[]any{"Jbs 22350 kalentong", "100", "Bakery Consumable"},
		[]any{"Jbs 22350 kalentong", "50", "Utilities Bill"},
		[]any{"Jbs 23326 kalentong", "30", "Packaging Boxes"},
		[]any{"", "20", "Misc"}, // no field, no content match: defaults
	), "s")

	buckets := BreakdownByCostCenter(rows, cluster)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	top := buckets[0]
	if top.Code != "22350" || top.Total.String() != "170" || top.Count != 3 {
		t.Errorf("top bucket = %s %s (%d rows)", top.Code, top.Total, top.Count)
	}
	if top.Defaulted != 1 {
		t.Errorf("defaulted count = %d, want 1 (audit the silent fallback)", top.Defaulted)
	}
	if len(top.Categories) != 3 || top.Categories[0].Name != "Bakery Supplies (Consumable)" {
		t.Errorf("nested categories = %v", top.Categories)
	}
	if buckets[1].Code != "23326" || buckets[1].Total.String() != "30" {
		t.Errorf("second bucket = %s %s", buckets[1].Code, buckets[1].Total)
	}
}

func TestTopN(t *testing.T) {
	list := []CategoryAmount{
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	}
	if got := TopN(list, 2); len(got) != 2 || got[1].Name != "b" {
		t.Errorf("TopN(2) = %v", got)
	}
	if got := TopN(list, 5); len(got) != 3 {
		t.Errorf("TopN beyond length should return everything, got %v", got)
	}
}

func TestRecentRows(t *testing.T) {
	rows := Ingest(tableOf(
		[]string{"Expense description"},
		[]any{"first"}, []any{"second"}, []any{"third"},
	), "s")

	got := RecentRows(rows, 2)
	if len(got) != 2 || RowDescription(got[0]) != "third" || RowDescription(got[1]) != "second" {
		t.Errorf("RecentRows = %v, want newest first", got)
	}
	if got := RecentRows(rows, 10); len(got) != 3 {
		t.Errorf("RecentRows beyond length = %d rows, want 3", len(got))
	}
}

func TestLatestEntry(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)
	rows := Ingest(tableOf(
		[]string{"Date"},
		[]any{"2026-01-05"},
		[]any{"2026-03-09"},
		[]any{"2025-12-31"},
	), "s")

	latest, ok := LatestEntry(rows, now)
	if !ok || !latest.Equal(time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)) {
		t.Errorf("LatestEntry = %v ok=%v", latest, ok)
	}
	if _, ok := LatestEntry(nil, now); ok {
		t.Error("LatestEntry on empty set should report false")
	}
}
