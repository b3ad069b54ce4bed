// Package storage persists refresh snapshots to SQLite so the history
// of cluster totals survives restarts.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"pcfdash/internal/dashboard"
)

// Snapshot is one cluster's aggregated totals at a refresh instant.
// Amounts are stored as decimal strings to avoid float drift.
type Snapshot struct {
	ID               uuid.UUID
	ClusterKey       string
	Generation       uint64
	FetchedAt        time.Time
	Total            decimal.Decimal
	ThisWeek         decimal.Decimal
	ThisMonth        decimal.Decimal
	ThisYear         decimal.Decimal
	TransactionCount int
	TopCategory      string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveRefresh records one snapshot per cluster report in a single
// transaction.
func (r *SQLiteRepository) SaveRefresh(ctx context.Context, res *dashboard.RefreshResult) ([]Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO snapshots
		(id, cluster_key, generation, fetched_at, total, this_week, this_month, this_year, transaction_count, top_category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	out := make([]Snapshot, 0, len(res.Clusters))
	for _, report := range res.Clusters {
		snap := Snapshot{
			ID:               uuid.New(),
			ClusterKey:       report.Cluster.Key,
			Generation:       res.Generation,
			FetchedAt:        res.FetchedAt,
			Total:            report.Stats.Total,
			ThisWeek:         report.Stats.ThisWeek,
			ThisMonth:        report.Stats.ThisMonth,
			ThisYear:         report.Stats.ThisYear,
			TransactionCount: report.Stats.TransactionCount,
			TopCategory:      report.TopCategory,
		}
		_, err := tx.ExecContext(ctx, q,
			snap.ID.String(), snap.ClusterKey, int64(snap.Generation), snap.FetchedAt.UTC(),
			snap.Total.String(), snap.ThisWeek.String(), snap.ThisMonth.String(), snap.ThisYear.String(),
			snap.TransactionCount, snap.TopCategory)
		if err != nil {
			return nil, fmt.Errorf("insert snapshot for %s: %w", snap.ClusterKey, err)
		}
		out = append(out, snap)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshots: %w", err)
	}
	return out, nil
}

// RecentSnapshots returns the newest snapshots for a cluster, most
// recent first.
func (r *SQLiteRepository) RecentSnapshots(ctx context.Context, clusterKey string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	const q = `SELECT id, cluster_key, generation, fetched_at, total, this_week, this_month, this_year, transaction_count, top_category
		FROM snapshots WHERE cluster_key = ?
		ORDER BY fetched_at DESC, generation DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, clusterKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanSnapshot(rows *sql.Rows) (Snapshot, error) {
	var (
		snap                              Snapshot
		id                                string
		generation                        int64
		total, week, month, year          string
	)
	if err := rows.Scan(&id, &snap.ClusterKey, &generation, &snap.FetchedAt,
		&total, &week, &month, &year, &snap.TransactionCount, &snap.TopCategory); err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot id %q: %w", id, err)
	}
	snap.ID = parsed
	snap.Generation = uint64(generation)

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snap.Total, total},
		{&snap.ThisWeek, week},
		{&snap.ThisMonth, month},
		{&snap.ThisYear, year},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parse snapshot amount %q: %w", f.src, err)
		}
		*f.dst = d
	}
	return snap, nil
}
