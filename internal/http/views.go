package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"pcfdash/internal/core"
	"pcfdash/internal/dashboard"
	"pcfdash/internal/storage"
)

const (
	displayDateLayout = "Jan 2, 2006"
	// noDate marks rows whose date could not be resolved.
	noDate = "N/A"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Cluster  string `json:"cluster"`
	Name     string `json:"name"`
	Redirect string `json:"redirect"`
}

type categoryView struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type statsResponse struct {
	Refreshed        bool            `json:"refreshed"`
	FetchedAt        *time.Time      `json:"fetched_at,omitempty"`
	Total            decimal.Decimal `json:"total"`
	ThisWeek         decimal.Decimal `json:"this_week"`
	ThisMonth        decimal.Decimal `json:"this_month"`
	ThisYear         decimal.Decimal `json:"this_year"`
	TransactionCount int             `json:"transaction_count"`
	Categories       []categoryView  `json:"categories"`
	SourceErrors     []string        `json:"source_errors,omitempty"`
}

type clusterSummaryView struct {
	Key              string          `json:"key"`
	Name             string          `json:"name"`
	DisplayName      string          `json:"display_name"`
	Color            string          `json:"color"`
	Total            decimal.Decimal `json:"total"`
	ThisMonth        decimal.Decimal `json:"this_month"`
	TransactionCount int             `json:"transaction_count"`
	TopCategory      string          `json:"top_category,omitempty"`
	LastEntry        string          `json:"last_entry,omitempty"`
}

type costCenterView struct {
	Code       string          `json:"code,omitempty"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Defaulted  int             `json:"defaulted"`
	Categories []categoryView  `json:"categories"`
}

type transactionView struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Account     string          `json:"account"`
	Vendor      string          `json:"vendor,omitempty"`
	Category    string          `json:"category"`
	CostCenter  string          `json:"cost_center,omitempty"`
	Cluster     string          `json:"cluster,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type clusterDetailView struct {
	clusterSummaryView
	Refreshed      bool              `json:"refreshed"`
	FetchedAt      *time.Time        `json:"fetched_at,omitempty"`
	ThisWeek       decimal.Decimal   `json:"this_week"`
	ThisYear       decimal.Decimal   `json:"this_year"`
	AvgTransaction decimal.Decimal   `json:"avg_transaction"`
	Categories     []categoryView    `json:"categories"`
	CostCenters    []costCenterView  `json:"cost_centers"`
	Transactions   []transactionView `json:"recent_transactions"`
}

type snapshotView struct {
	ID               string          `json:"id"`
	FetchedAt        time.Time       `json:"fetched_at"`
	Total            decimal.Decimal `json:"total"`
	ThisWeek         decimal.Decimal `json:"this_week"`
	ThisMonth        decimal.Decimal `json:"this_month"`
	ThisYear         decimal.Decimal `json:"this_year"`
	TransactionCount int             `json:"transaction_count"`
	TopCategory      string          `json:"top_category,omitempty"`
}

type refreshResponse struct {
	Generation   uint64         `json:"generation"`
	FetchedAt    time.Time      `json:"fetched_at"`
	RowCount     int            `json:"row_count"`
	ClusterRows  map[string]int `json:"cluster_rows"`
	SourceErrors []string       `json:"source_errors,omitempty"`
	Empty        bool           `json:"empty"`
}

type transactionsResponse struct {
	Refreshed    bool              `json:"refreshed"`
	Count        int               `json:"count"`
	Transactions []transactionView `json:"transactions"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func sourceErrorNames(errs map[string]error) []string {
	if len(errs) == 0 {
		return nil
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	return names
}

func buildStats(res *dashboard.RefreshResult) statsResponse {
	out := statsResponse{
		Refreshed:        true,
		FetchedAt:        &res.FetchedAt,
		Total:            res.Stats.Total,
		ThisWeek:         res.Stats.ThisWeek,
		ThisMonth:        res.Stats.ThisMonth,
		ThisYear:         res.Stats.ThisYear,
		TransactionCount: res.Stats.TransactionCount,
		Categories:       categoryViews(core.TopN(res.Categories, core.TopCategoriesChart)),
		SourceErrors:     sourceErrorNames(res.Errors),
	}
	return out
}

func emptyStats() statsResponse {
	return statsResponse{
		Total:      decimal.Zero,
		ThisWeek:   decimal.Zero,
		ThisMonth:  decimal.Zero,
		ThisYear:   decimal.Zero,
		Categories: []categoryView{},
	}
}

func categoryViews(list []core.CategoryAmount) []categoryView {
	out := make([]categoryView, len(list))
	for i, c := range list {
		out[i] = categoryView{Name: c.Name, Total: c.Total, Count: c.Count}
	}
	return out
}

func buildClusterSummary(report dashboard.ClusterReport) clusterSummaryView {
	view := clusterSummaryView{
		Key:              report.Cluster.Key,
		Name:             report.Cluster.Name,
		DisplayName:      report.Cluster.DisplayName,
		Color:            report.Cluster.Color,
		Total:            report.Stats.Total,
		ThisMonth:        report.Stats.ThisMonth,
		TransactionCount: report.Stats.TransactionCount,
		TopCategory:      report.TopCategory,
	}
	if report.HasLastEntry {
		view.LastEntry = report.LastEntry.Format(displayDateLayout)
	}
	return view
}

func buildClusterDetail(report dashboard.ClusterReport, fetchedAt time.Time, now time.Time) clusterDetailView {
	view := clusterDetailView{
		clusterSummaryView: buildClusterSummary(report),
		Refreshed:          true,
		FetchedAt:          &fetchedAt,
		ThisWeek:           report.Stats.ThisWeek,
		ThisYear:           report.Stats.ThisYear,
		AvgTransaction:     report.AvgTransaction,
		Categories:         categoryViews(report.Categories),
		CostCenters:        costCenterViews(report.CostCenters),
		Transactions:       transactionViews(core.RecentRows(report.Rows, 10), report.Cluster.Key, now),
	}
	return view
}

func emptyClusterDetail(c core.Cluster) clusterDetailView {
	return clusterDetailView{
		clusterSummaryView: clusterSummaryView{
			Key:         c.Key,
			Name:        c.Name,
			DisplayName: c.DisplayName,
			Color:       c.Color,
			Total:       decimal.Zero,
			ThisMonth:   decimal.Zero,
		},
		ThisWeek:       decimal.Zero,
		ThisYear:       decimal.Zero,
		AvgTransaction: decimal.Zero,
		Categories:     []categoryView{},
		CostCenters:    []costCenterView{},
		Transactions:   []transactionView{},
	}
}

func costCenterViews(buckets []core.CostCenterBucket) []costCenterView {
	out := make([]costCenterView, len(buckets))
	for i, b := range buckets {
		out[i] = costCenterView{
			Code:       b.CostCenter.Code,
			Name:       b.CostCenter.Name,
			Total:      b.Total,
			Count:      b.Count,
			Defaulted:  b.Defaulted,
			Categories: categoryViews(b.Categories),
		}
	}
	return out
}

func transactionViews(rows []core.Row, clusterKey string, now time.Time) []transactionView {
	out := make([]transactionView, len(rows))
	for i, r := range rows {
		out[i] = buildTransaction(r, clusterKey, now)
	}
	return out
}

func buildTransaction(r core.Row, clusterKey string, now time.Time) transactionView {
	account := core.RowAccountName(r)
	cc := r.FirstString("costcenter", "costcentername")
	return transactionView{
		Date:        displayDate(r, now),
		Description: core.RowDescription(r),
		Account:     account,
		Vendor:      core.RowVendor(r),
		Category:    core.Categorize(account),
		CostCenter:  cc,
		Cluster:     clusterKey,
		Amount:      core.RowAmount(r),
	}
}

// displayDate prefers the source's own formatted date string; absent
// that, it renders the resolved date, and rows with no usable date at
// all show a sentinel rather than an invented one.
func displayDate(r core.Row, now time.Time) string {
	if f := r.NormString("dateformatted"); f != "" {
		return f
	}
	raw := core.RowDateValue(r)
	if raw == nil || core.ValueString(raw) == "" {
		return noDate
	}
	if t, ok := core.ResolveDate(raw, now); ok {
		return t.Format(displayDateLayout)
	}
	return noDate
}

// clusterForRow attributes a row to a cluster for the global
// transaction listing. Dedicated-source rows carry their cluster as
// provenance; shared rows fall back to content matching.
func clusterForRow(r core.Row, clusters []core.Cluster) string {
	if r.Source != dashboard.SharedSourceName {
		return r.Source
	}
	for _, c := range clusters {
		if !c.HasDedicatedSource() && core.RowMatchesCluster(r, c) {
			return c.Key
		}
	}
	return ""
}

func snapshotViews(snaps []storage.Snapshot) []snapshotView {
	out := make([]snapshotView, len(snaps))
	for i, s := range snaps {
		out[i] = snapshotView{
			ID:               s.ID.String(),
			FetchedAt:        s.FetchedAt,
			Total:            s.Total,
			ThisWeek:         s.ThisWeek,
			ThisMonth:        s.ThisMonth,
			ThisYear:         s.ThisYear,
			TransactionCount: s.TransactionCount,
			TopCategory:      s.TopCategory,
		}
	}
	return out
}
