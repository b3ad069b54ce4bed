package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field lookup keys shared by aggregation, search and display.
const (
	keyDate        = "date"
	keyAccountName = "accountname"
	keyDescription = "expensedescription"
	keyVendorName  = "vendorname"
	keyVendor      = "vendor"
)

// Top-N truncation applied by the chart views. The remainder is dropped
// without an "Other" rollup.
const (
	TopCategoriesChart  = 6
	TopCategoriesLegend = 5
)

type (
	// StatsSnapshot is the aggregation result for one row set. All four
	// totals come out of a single pass over the rows, so every
	// downstream view is a projection of the same numbers.
	StatsSnapshot struct {
		Total            decimal.Decimal
		ThisWeek         decimal.Decimal
		ThisMonth        decimal.Decimal
		ThisYear         decimal.Decimal
		TransactionCount int
	}

	// CategoryAmount is one entry of a ranked breakdown.
	CategoryAmount struct {
		Name  string
		Total decimal.Decimal
		Count int
	}

	// CostCenterBucket is a derived aggregate keyed by resolved cost
	// center, with the category breakdown nested inside. Buckets are
	// rebuilt from scratch on every pass, never incrementally updated.
	CostCenterBucket struct {
		CostCenter
		Total      decimal.Decimal
		Count      int
		Categories []CategoryAmount
		// Defaulted counts rows attributed by the configured fallback
		// rather than by data, kept for audit.
		Defaulted int
	}
)

// RowDateValue returns the raw date cell of a row.
func RowDateValue(r Row) any {
	v, _ := r.Norm(keyDate)
	return v
}

// RowAccountName returns the account-name field used for category
// classification.
func RowAccountName(r Row) string {
	return r.NormString(keyAccountName)
}

// RowDescription returns the expense description field.
func RowDescription(r Row) string {
	return r.NormString(keyDescription)
}

// RowVendor returns the vendor field.
func RowVendor(r Row) string {
	return r.FirstString(keyVendorName, keyVendor)
}

// WeekStart returns the most recent Sunday at 00:00 in now's location.
func WeekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(now.Weekday()))
}

// MonthStart returns the 1st of now's calendar month at 00:00.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// YearStart returns January 1 of now's year at 00:00.
func YearStart(now time.Time) time.Time {
	return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
}

// Aggregate computes the rolling-window sums for a row set in a single
// pass. A row's amount lands in every window whose start boundary its
// date is on or after; unparseable dates count as now (so they land in
// every window), unparseable amounts as zero.
func Aggregate(rows []Row, now time.Time) StatsSnapshot {
	weekStart := WeekStart(now)
	monthStart := MonthStart(now)
	yearStart := YearStart(now)

	s := StatsSnapshot{
		Total:    decimal.Zero,
		ThisWeek: decimal.Zero, ThisMonth: decimal.Zero, ThisYear: decimal.Zero,
	}
	for _, r := range rows {
		amt := RowAmount(r)
		date := ResolveDateOrNow(RowDateValue(r), now)

		s.Total = s.Total.Add(amt)
		if !date.Before(weekStart) {
			s.ThisWeek = s.ThisWeek.Add(amt)
		}
		if !date.Before(monthStart) {
			s.ThisMonth = s.ThisMonth.Add(amt)
		}
		if !date.Before(yearStart) {
			s.ThisYear = s.ThisYear.Add(amt)
		}
	}
	s.TransactionCount = len(rows)
	return s
}

// BreakdownByCategory totals a row set per expense category, sorted by
// total descending. Ties keep encounter order, so the ranking is
// deterministic for equal totals. The sum over all entries equals the
// row set's total balance.
func BreakdownByCategory(rows []Row) []CategoryAmount {
	index := map[string]int{}
	var list []CategoryAmount
	for _, r := range rows {
		cat := Categorize(RowAccountName(r))
		i, ok := index[cat]
		if !ok {
			i = len(list)
			index[cat] = i
			list = append(list, CategoryAmount{Name: cat, Total: decimal.Zero})
		}
		list[i].Total = list[i].Total.Add(RowAmount(r))
		list[i].Count++
	}
	sortBreakdown(list)
	return list
}

// BreakdownByCostCenter buckets a cluster's rows by resolved cost
// center, nesting a category breakdown inside each bucket. Buckets are
// ranked by total descending, stable on ties.
func BreakdownByCostCenter(rows []Row, c Cluster) []CostCenterBucket {
	index := map[string]int{}
	var buckets []CostCenterBucket
	catIndex := map[string]map[string]int{}

	for _, r := range rows {
		cc, res := ResolveCostCenter(r, c)
		key := cc.Code
		if key == "" {
			key = cc.Name
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, CostCenterBucket{CostCenter: cc, Total: decimal.Zero})
			catIndex[key] = map[string]int{}
		}
		amt := RowAmount(r)
		buckets[i].Total = buckets[i].Total.Add(amt)
		buckets[i].Count++
		if res == ResolvedDefault {
			buckets[i].Defaulted++
		}

		cat := Categorize(RowAccountName(r))
		ci, ok := catIndex[key][cat]
		if !ok {
			ci = len(buckets[i].Categories)
			catIndex[key][cat] = ci
			buckets[i].Categories = append(buckets[i].Categories, CategoryAmount{Name: cat, Total: decimal.Zero})
		}
		buckets[i].Categories[ci].Total = buckets[i].Categories[ci].Total.Add(amt)
		buckets[i].Categories[ci].Count++
	}

	for i := range buckets {
		sortBreakdown(buckets[i].Categories)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Total.GreaterThan(buckets[j].Total)
	})
	return buckets
}

// TopN truncates a ranked breakdown to its first n entries.
func TopN(list []CategoryAmount, n int) []CategoryAmount {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

func sortBreakdown(list []CategoryAmount) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Total.GreaterThan(list[j].Total)
	})
}

// SearchRows filters rows by case-insensitive substring match against
// the description, account-name and vendor fields.
func SearchRows(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	var out []Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(RowDescription(r)), term) ||
			strings.Contains(strings.ToLower(RowAccountName(r)), term) ||
			strings.Contains(strings.ToLower(RowVendor(r)), term) {
			out = append(out, r)
		}
	}
	return out
}

// RecentRows returns the n most recently appended rows, newest first.
func RecentRows(rows []Row, n int) []Row {
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]Row, 0, n)
	for i := len(rows) - 1; i >= len(rows)-n; i-- {
		out = append(out, rows[i])
	}
	return out
}

// LatestEntry returns the most recent resolvable row date, false when
// the set is empty.
func LatestEntry(rows []Row, now time.Time) (time.Time, bool) {
	if len(rows) == 0 {
		return time.Time{}, false
	}
	latest := time.Time{}
	for _, r := range rows {
		if d := ResolveDateOrNow(RowDateValue(r), now); d.After(latest) {
			latest = d
		}
	}
	return latest, true
}
