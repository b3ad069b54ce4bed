package backend

import (
	"context"
	"testing"

	"pcfdash/internal/config"
	"pcfdash/internal/core"
	"pcfdash/internal/log"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		DataBackend:     backend,
		SharedSheetID:   "shared-sheet",
		SheetName:       "Sheet1",
		ClusterSheetIDs: map[string]string{},
	}
}

func TestBuildSourcesMemory(t *testing.T) {
	src, err := BuildSources(context.Background(), testConfig(config.BackendMemory), core.DefaultClusters(), log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("BuildSources() error = %v", err)
	}
	if src.Shared == nil {
		t.Fatal("expected a shared source")
	}
	if len(src.Dedicated) != 0 {
		t.Errorf("dedicated sources = %d, want 0", len(src.Dedicated))
	}
	for _, c := range src.Clusters {
		if c.HasDedicatedSource() {
			t.Errorf("cluster %q kept a dedicated regime with no wired source", c.Key)
		}
	}
	rows, err := src.Shared.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(rows) == 0 {
		t.Error("expected seeded rows")
	}
}

func TestBuildSourcesGviz(t *testing.T) {
	clusters := []core.Cluster{
		{Key: "paco", SheetID: "paco-sheet"},
		{Key: "deca"},
	}
	cfg := testConfig(config.BackendGviz)
	cfg.ClusterSheetIDs["deca"] = "deca-override"

	src, err := BuildSources(context.Background(), cfg, clusters, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("BuildSources() error = %v", err)
	}
	if src.Shared.Name() != "shared" {
		t.Errorf("shared source name = %q, want %q", src.Shared.Name(), "shared")
	}
	if len(src.Dedicated) != 2 {
		t.Fatalf("dedicated sources = %d, want 2", len(src.Dedicated))
	}
	for _, key := range []string{"paco", "deca"} {
		if _, ok := src.Dedicated[key]; !ok {
			t.Errorf("missing dedicated source for %q", key)
		}
	}
	deca, _ := core.ClusterByKey(src.Clusters, "deca")
	if deca.SheetID != "deca-override" {
		t.Errorf("deca effective sheet ID = %q, want %q", deca.SheetID, "deca-override")
	}
}

func TestBuildSourcesSharedSheetNotFetchedTwice(t *testing.T) {
	cfg := testConfig(config.BackendGviz)
	cfg.SharedSheetID = config.DefaultSharedSheetID

	src, err := BuildSources(context.Background(), cfg, core.DefaultClusters(), log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("BuildSources() error = %v", err)
	}
	if _, ok := src.Dedicated["blumentrit"]; ok {
		t.Error("blumentrit's sheet is the shared sheet and must not get a second source")
	}
	for _, key := range []string{"balicbalic", "kalentong", "paco"} {
		if _, ok := src.Dedicated[key]; !ok {
			t.Errorf("missing dedicated source for %q", key)
		}
	}
	if len(src.Dedicated) != 3 {
		t.Errorf("dedicated sources = %d, want 3", len(src.Dedicated))
	}

	blum, ok := core.ClusterByKey(src.Clusters, "blumentrit")
	if !ok {
		t.Fatal("blumentrit missing from effective clusters")
	}
	if blum.HasDedicatedSource() {
		t.Error("blumentrit must be carved out of the shared pool by content filtering")
	}
	paco, _ := core.ClusterByKey(src.Clusters, "paco")
	if !paco.HasDedicatedSource() {
		t.Error("paco must keep its dedicated regime")
	}
}

func TestBuildSourcesUnknownBackend(t *testing.T) {
	if _, err := BuildSources(context.Background(), testConfig("oracle"), nil, log.New(log.DefaultConfig())); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
