package core

import "strings"

// Cluster is a physical retail location: a static configuration entity,
// read-only after startup, never mutated by fetched data.
type Cluster struct {
	Key         string
	Name        string
	DisplayName string
	// CostCenters lists the associated cost centers. The first entry is
	// the primary one used as the attribution fallback; later entries
	// are legacy codes that still appear in old rows.
	CostCenters []CostCenter
	Color       string
	// SheetID identifies a dedicated data source pre-scoped to this
	// cluster. Empty means the cluster is carved out of the shared
	// source by content filtering.
	SheetID string
}

// Primary returns the cluster's primary cost center.
func (c Cluster) Primary() CostCenter {
	if len(c.CostCenters) == 0 {
		return CostCenter{}
	}
	return c.CostCenters[0]
}

// HasDedicatedSource reports whether the cluster has its own data
// source rather than a carve-out of the shared one.
func (c Cluster) HasDedicatedSource() bool {
	return c.SheetID != ""
}

// NameVariations returns the lowercase matching forms used for content
// filtering: the base name, a hyphen-stripped form, and the prefix
// before any hyphen ("Balic-Balic" -> "balic-balic", "balicbalic",
// "balic").
func (c Cluster) NameVariations() []string {
	base := strings.ToLower(c.Name)
	vars := []string{base}
	if strings.Contains(base, "-") {
		vars = append(vars,
			strings.ReplaceAll(base, "-", ""),
			strings.SplitN(base, "-", 2)[0],
		)
	}
	return vars
}

// DefaultClusters is the static cluster table supplied at startup.
// Blumentrit's sheet doubles as the shared source for the clusters
// onboarded without a dedicated one.
func DefaultClusters() []Cluster {
	return []Cluster{
		{
			Key: "blumentrit", Name: "Blumentrit", DisplayName: "PCF Blumentrit",
			CostCenters: []CostCenter{{Code: "22348", Name: "Jbs 22348 blumentrit"}},
			Color:       "#C41E3A",
			SheetID:     "1Iw76w4c0Jp8xwSj1UgukZlkFRGOclkvJk9TeaZzuiw0",
		},
		{
			Key: "balicbalic", Name: "Balic-Balic", DisplayName: "PCF Balicbalic",
			CostCenters: []CostCenter{{Code: "22349", Name: "Jbs 22349 balicbalic"}},
			Color:       "#1565C0",
			SheetID:     "1Ssha1noo1nSpDdOr9hOmq3FDmF_cOZur3XMqrvNZTqI",
		},
		{
			Key: "kalentong", Name: "Kalentong", DisplayName: "PCF Kalentong",
			CostCenters: []CostCenter{
				{Code: "22350", Name: "Jbs 22350 kalentong"},
				{Code: "23326", Name: "Jbs 23326 kalentong"},
			},
			Color:   "#43A047",
			SheetID: "1FXWoiZEehsHpfY-fa1S5nufWKgN-4gnFXpqguRSZMN8",
		},
		{
			Key: "paco", Name: "Paco", DisplayName: "PCF Paco",
			CostCenters: []CostCenter{
				{Code: "22351", Name: "Jbs 22351 paco"},
				{Code: "23252", Name: "Jbs 23252 paco"},
			},
			Color:   "#FB8C00",
			SheetID: "1AHW0frOcBk1JUF7MdVpazdHQBUgKFXM0I-JBUKsmCNY",
		},
		{
			Key: "deca", Name: "Deca", DisplayName: "PCF Deca",
			CostCenters: []CostCenter{{Code: "23582", Name: "Jbs 23582 deca"}},
			Color:       "#F5A623",
		},
		{
			Key: "walter", Name: "Walter", DisplayName: "PCF Walter",
			CostCenters: []CostCenter{{Code: "24723", Name: "Jbs 24723 walter"}},
			Color:       "#E8721C",
		},
		{
			Key: "gagalangin", Name: "Gagalangin", DisplayName: "PCF Gagalangin",
			CostCenters: []CostCenter{{Code: "23974", Name: "Jbs 23974 gagalangin"}},
			Color:       "#8B4513",
		},
		{
			Key: "fajardo", Name: "Fajardo", DisplayName: "PCF Fajardo",
			CostCenters: []CostCenter{{Code: "22755", Name: "Jbs 22755 fajardo"}},
			Color:       "#D0021B",
		},
	}
}

// ClusterByKey finds a cluster by its identifying key.
func ClusterByKey(clusters []Cluster, key string) (Cluster, bool) {
	for _, c := range clusters {
		if c.Key == key {
			return c, true
		}
	}
	return Cluster{}, false
}

// SelectRows returns the rows belonging to a cluster. A cluster with a
// dedicated source gets all rows ingested from that source unfiltered
// (the source is assumed pre-scoped); otherwise the shared pool is
// filtered by content. Callers need not know which regime applies.
func SelectRows(rows []Row, c Cluster) []Row {
	var out []Row
	if c.HasDedicatedSource() {
		for _, r := range rows {
			if r.Source == c.Key {
				out = append(out, r)
			}
		}
		return out
	}
	for _, r := range rows {
		if RowMatchesCluster(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// RowMatchesCluster reports whether a shared-pool row belongs to the
// cluster: its cost-center field contains one of the configured codes
// or a name variation, or its cluster field contains a name variation.
// Matching is case-insensitive substring containment.
func RowMatchesCluster(r Row, c Cluster) bool {
	cost := strings.ToLower(r.NormString("costcenter"))
	clusterField := strings.ToLower(r.NormString("cluster"))
	for _, cc := range c.CostCenters {
		if cc.Code != "" && strings.Contains(cost, cc.Code) {
			return true
		}
	}
	for _, v := range c.NameVariations() {
		if strings.Contains(cost, v) || strings.Contains(clusterField, v) {
			return true
		}
	}
	return false
}
