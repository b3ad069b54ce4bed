package core

import "testing"

func TestNameVariations(t *testing.T) {
	c := Cluster{Name: "Balic-Balic"}
	got := c.NameVariations()
	want := []string{"balic-balic", "balicbalic", "balic"}
	if len(got) != len(want) {
		t.Fatalf("variations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variation[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	plain := Cluster{Name: "Paco"}
	if vars := plain.NameVariations(); len(vars) != 1 || vars[0] != "paco" {
		t.Errorf("plain name variations = %v, want [paco]", vars)
	}
}

func TestSelectRowsDedicatedSource(t *testing.T) {
	cluster := Cluster{Key: "paco", Name: "Paco", SheetID: "sheet-paco",
		CostCenters: []CostCenter{{Code: "22351"}}}

	rows := append(
		Ingest(tableOf([]string{"Cost center"}, []any{"something unrelated"}, []any{"22348"}), "paco"),
		Ingest(tableOf([]string{"Cost center"}, []any{"22351"}), "shared")...,
	)

	got := SelectRows(rows, cluster)
	// Dedicated source: provenance decides, content is irrelevant.
	if len(got) != 2 {
		t.Fatalf("selected %d rows, want 2 (the dedicated source's rows, unfiltered)", len(got))
	}
	for _, r := range got {
		if r.Source != "paco" {
			t.Errorf("row from source %q leaked into dedicated selection", r.Source)
		}
	}
}

func TestSelectRowsSharedPool(t *testing.T) {
	cluster := Cluster{Key: "deca", Name: "Deca",
		CostCenters: []CostCenter{{Code: "23582", Name: "Jbs 23582 deca"}}}

	table := tableOf(
		[]string{"Cost center", "Cluster"},
		[]any{"23582", ""},               // exact code
		[]any{"Jbs 23582 deca", ""},      // code inside name
		[]any{"", "Deca"},                // cluster field by name
		[]any{"22348", "Blumentrit"},     // other cluster
		[]any{"", ""},                    // unattributable
	)
	rows := Ingest(table, "shared")

	got := SelectRows(rows, cluster)
	if len(got) != 3 {
		t.Fatalf("selected %d rows, want 3", len(got))
	}

	t.Run("exact code always selected", func(t *testing.T) {
		if !RowMatchesCluster(rows[0], cluster) {
			t.Error("row with exact cost-center code not selected")
		}
	})
	t.Run("no match never selected", func(t *testing.T) {
		if RowMatchesCluster(rows[3], cluster) || RowMatchesCluster(rows[4], cluster) {
			t.Error("non-matching row selected")
		}
	})
}

func TestSelectRowsHyphenatedNameVariation(t *testing.T) {
	cluster := Cluster{Key: "balicbalic", Name: "Balic-Balic",
		CostCenters: []CostCenter{{Code: "22349", Name: "Jbs 22349 balicbalic"}}}

	rows := Ingest(tableOf(
		[]string{"Cost center"},
		[]any{"jbs balicbalic stall"},
		[]any{"balic annex"},
	), "shared")

	for i, r := range rows {
		if !RowMatchesCluster(r, cluster) {
			t.Errorf("row %d should match via name variation", i)
		}
	}
}

func TestDefaultClusters(t *testing.T) {
	clusters := DefaultClusters()
	if len(clusters) != 8 {
		t.Fatalf("got %d clusters, want 8", len(clusters))
	}
	for _, c := range clusters {
		if len(c.CostCenters) == 0 {
			t.Errorf("cluster %s has no cost centers", c.Key)
		}
		for _, cc := range c.CostCenters {
			if len(cc.Code) != 5 {
				t.Errorf("cluster %s cost-center code %q is not 5 digits", c.Key, cc.Code)
			}
		}
	}
	if _, ok := ClusterByKey(clusters, "blumentrit"); !ok {
		t.Error("blumentrit missing from default table")
	}
	if _, ok := ClusterByKey(clusters, "nope"); ok {
		t.Error("unknown key should not resolve")
	}
}

func TestSearchRows(t *testing.T) {
	rows := Ingest(tableOf(
		[]string{"Expense description", "Account Name", "vendor name"},
		[]any{"flour delivery", "Bakery Consumable", "Santos Trading"},
		[]any{"water bill", "Utilities", "Manila Water"},
	), "s")

	tests := []struct {
		term string
		want int
	}{
		{"flour", 1},
		{"SANTOS", 1},
		{"water", 1},
		{"utilities", 1},
		{"", 2},
		{"zzz", 0},
	}
	for _, tt := range tests {
		if got := len(SearchRows(rows, tt.term)); got != tt.want {
			t.Errorf("SearchRows(%q) matched %d rows, want %d", tt.term, got, tt.want)
		}
	}
}
