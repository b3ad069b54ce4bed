package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pcfdash/internal/core"
	"pcfdash/internal/dashboard"
	"pcfdash/internal/log"
	"pcfdash/internal/sheets"
	"pcfdash/internal/sheets/memory"
	"pcfdash/internal/storage"
)

func tableOf(headers []string, valueRows ...[]any) core.Table {
	t := core.Table{Cols: make([]core.Column, len(headers))}
	for i, h := range headers {
		t.Cols[i] = core.Column{Label: h}
	}
	for _, vr := range valueRows {
		cells := make([]*core.Cell, len(vr))
		for j, v := range vr {
			cells[j] = &core.Cell{Value: v}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

type recordingStore struct {
	mu    sync.Mutex
	saves []*dashboard.RefreshResult
	err   error
}

func (s *recordingStore) SaveRefresh(_ context.Context, res *dashboard.RefreshResult) ([]storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.saves = append(s.saves, res)
	return nil, nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*dashboard.RefreshResult
	err       error
}

func (p *recordingPublisher) PublishRefreshCompleted(_ context.Context, res *dashboard.RefreshResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, res)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func testDashboard() *dashboard.Service {
	headers := []string{"Date", "AMT W/ VAt", "Account Name", "Cost Center"}
	shared := memory.New(dashboard.SharedSourceName, tableOf(headers,
		[]any{"2026-08-01", 100.0, "Flour and Sugar", "Jbs 23582 deca"},
		[]any{"2026-08-02", 50.0, "Meralco", "Jbs 23582 deca"},
	))
	clusters := []core.Cluster{
		{
			Key: "deca", Name: "Deca", DisplayName: "PCF Deca",
			CostCenters: []core.CostCenter{{Code: "23582", Name: "Jbs 23582 deca"}},
		},
	}
	logger := log.New(log.DefaultConfig())
	return dashboard.New(clusters, shared, map[string]sheets.RowSource{}, logger)
}

func TestRefreshOnce(t *testing.T) {
	store := &recordingStore{}
	pub := &recordingPublisher{}
	r := NewRefresher(testDashboard(), time.Minute, log.New(log.DefaultConfig()),
		WithSnapshotStore(store), WithEventPublisher(pub))

	res, err := r.RefreshOnce(context.Background())
	if err != nil {
		t.Fatalf("RefreshOnce() error = %v", err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(res.Rows))
	}
	if store.count() != 1 {
		t.Errorf("snapshot saves = %d, want 1", store.count())
	}
	if pub.count() != 1 {
		t.Errorf("published events = %d, want 1", pub.count())
	}
}

func TestRefreshOnceToleratesSideEffectFailures(t *testing.T) {
	store := &recordingStore{err: errors.New("db locked")}
	pub := &recordingPublisher{err: errors.New("broker down")}
	r := NewRefresher(testDashboard(), time.Minute, log.New(log.DefaultConfig()),
		WithSnapshotStore(store), WithEventPublisher(pub))

	res, err := r.RefreshOnce(context.Background())
	if err != nil {
		t.Fatalf("RefreshOnce() error = %v", err)
	}
	if res.Generation == 0 {
		t.Error("expected a committed generation despite failed side effects")
	}
}

func TestRefreshOnceWithoutOptionalCollaborators(t *testing.T) {
	r := NewRefresher(testDashboard(), time.Minute, log.New(log.DefaultConfig()))
	if _, err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() error = %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &recordingStore{}
	r := NewRefresher(testDashboard(), 10*time.Millisecond, log.New(log.DefaultConfig()),
		WithSnapshotStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for store.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for periodic refreshes")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
