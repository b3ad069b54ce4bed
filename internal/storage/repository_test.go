package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pcfdash/internal/core"
	"pcfdash/internal/dashboard"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "pcfdash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testResult(generation uint64, fetchedAt time.Time) *dashboard.RefreshResult {
	return &dashboard.RefreshResult{
		Generation: generation,
		FetchedAt:  fetchedAt,
		Clusters: []dashboard.ClusterReport{
			{
				Cluster: core.Cluster{Key: "paco"},
				Stats: core.StatsSnapshot{
					Total:            decimal.RequireFromString("275.50"),
					ThisWeek:         decimal.RequireFromString("75"),
					ThisMonth:        decimal.RequireFromString("275.50"),
					ThisYear:         decimal.RequireFromString("275.50"),
					TransactionCount: 2,
				},
				TopCategory: "Packaging",
			},
			{
				Cluster: core.Cluster{Key: "deca"},
				Stats: core.StatsSnapshot{
					Total:            decimal.RequireFromString("150"),
					ThisWeek:         decimal.Zero,
					ThisMonth:        decimal.RequireFromString("150"),
					ThisYear:         decimal.RequireFromString("150"),
					TransactionCount: 3,
				},
			},
		},
	}
}

func TestSaveRefreshRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fetchedAt := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

	saved, err := repo.SaveRefresh(ctx, testResult(1, fetchedAt))
	if err != nil {
		t.Fatalf("SaveRefresh() error = %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("SaveRefresh() saved %d snapshots, want 2", len(saved))
	}

	snaps, err := repo.RecentSnapshots(ctx, "paco", 10)
	if err != nil {
		t.Fatalf("RecentSnapshots() error = %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("RecentSnapshots() returned %d, want 1", len(snaps))
	}

	got := snaps[0]
	if got.ClusterKey != "paco" {
		t.Errorf("cluster key = %q, want paco", got.ClusterKey)
	}
	if got.Generation != 1 {
		t.Errorf("generation = %d, want 1", got.Generation)
	}
	if !got.Total.Equal(decimal.RequireFromString("275.50")) {
		t.Errorf("total = %s, want 275.50", got.Total)
	}
	if got.TransactionCount != 2 {
		t.Errorf("transaction count = %d, want 2", got.TransactionCount)
	}
	if got.TopCategory != "Packaging" {
		t.Errorf("top category = %q, want Packaging", got.TopCategory)
	}
	if !got.FetchedAt.Equal(fetchedAt) {
		t.Errorf("fetched at = %v, want %v", got.FetchedAt, fetchedAt)
	}
}

func TestRecentSnapshotsOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

	for i := uint64(1); i <= 3; i++ {
		if _, err := repo.SaveRefresh(ctx, testResult(i, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRefresh(%d) error = %v", i, err)
		}
	}

	snaps, err := repo.RecentSnapshots(ctx, "deca", 2)
	if err != nil {
		t.Fatalf("RecentSnapshots() error = %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("RecentSnapshots() returned %d, want 2", len(snaps))
	}
	if snaps[0].Generation != 3 || snaps[1].Generation != 2 {
		t.Errorf("generations = [%d %d], want [3 2]", snaps[0].Generation, snaps[1].Generation)
	}
}

func TestRecentSnapshotsUnknownCluster(t *testing.T) {
	repo := newTestRepo(t)

	snaps, err := repo.RecentSnapshots(context.Background(), "nowhere", 5)
	if err != nil {
		t.Fatalf("RecentSnapshots() error = %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("RecentSnapshots() returned %d, want 0", len(snaps))
	}
}
