// Package backend builds the row sources the dashboard reads from,
// based on the configured data backend.
package backend

import (
	"context"
	"fmt"

	"pcfdash/internal/config"
	"pcfdash/internal/core"
	"pcfdash/internal/dashboard"
	"pcfdash/internal/log"
	"pcfdash/internal/sheets"
	"pcfdash/internal/sheets/google"
	"pcfdash/internal/sheets/gviz"
	"pcfdash/internal/sheets/memory"
)

// Sources holds the shared pool source plus one dedicated source per
// cluster that has its own sheet. Clusters is the configured table with
// each sheet ID reconciled against the sources actually wired, so the
// selection regime always matches a real source.
type Sources struct {
	Shared    sheets.RowSource
	Dedicated map[string]sheets.RowSource
	Clusters  []core.Cluster
}

// BuildSources constructs row sources for every cluster according to
// cfg.DataBackend. CLUSTER_SHEET_IDS overrides take precedence over the
// built-in dedicated sheet IDs, so a shared-pool cluster can be given a
// dedicated sheet without a code change. A cluster whose sheet is the
// shared sheet gets no dedicated source: the shared fetch already
// covers it, and fetching it twice would double every row.
func BuildSources(ctx context.Context, cfg *config.Config, clusters []core.Cluster, logger *log.Logger) (*Sources, error) {
	var (
		src *Sources
		err error
	)
	switch cfg.DataBackend {
	case config.BackendGviz:
		src, err = buildGvizSources(cfg, clusters, logger)
	case config.BackendSheets:
		src, err = buildSheetsSources(ctx, cfg, clusters, logger)
	case config.BackendMemory:
		logger.Info("using seeded in-memory source", log.FieldSource, dashboard.SharedSourceName)
		src = &Sources{
			Shared:    memory.New(dashboard.SharedSourceName, memory.Seed()),
			Dedicated: map[string]sheets.RowSource{},
		}
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
	if err != nil {
		return nil, err
	}
	src.Clusters = effectiveClusters(cfg, clusters, src.Dedicated)
	return src, nil
}

func buildGvizSources(cfg *config.Config, clusters []core.Cluster, logger *log.Logger) (*Sources, error) {
	src := &Sources{
		Shared:    gviz.New(dashboard.SharedSourceName, cfg.SharedSheetID, cfg.SheetName),
		Dedicated: make(map[string]sheets.RowSource),
	}
	for _, c := range clusters {
		sheetID := dedicatedSheetID(cfg, c)
		if sheetID == "" {
			continue
		}
		if sheetID == cfg.SharedSheetID {
			logger.Info("dedicated sheet is the shared sheet, serving from the shared pool",
				log.FieldClusterKey, c.Key)
			continue
		}
		src.Dedicated[c.Key] = gviz.New(c.Key, sheetID, cfg.SheetName)
		logger.Info("dedicated gviz source configured",
			log.FieldClusterKey, c.Key, "sheet_id", sheetID)
	}
	return src, nil
}

func buildSheetsSources(ctx context.Context, cfg *config.Config, clusters []core.Cluster, logger *log.Logger) (*Sources, error) {
	shared, err := google.NewFromEnv(ctx, dashboard.SharedSourceName, cfg.SharedSheetID, cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("shared sheets source: %w", err)
	}
	src := &Sources{
		Shared:    shared,
		Dedicated: make(map[string]sheets.RowSource),
	}
	for _, c := range clusters {
		sheetID := dedicatedSheetID(cfg, c)
		if sheetID == "" {
			continue
		}
		if sheetID == cfg.SharedSheetID {
			logger.Info("dedicated sheet is the shared sheet, serving from the shared pool",
				log.FieldClusterKey, c.Key)
			continue
		}
		cli, err := google.NewFromEnv(ctx, c.Key, sheetID, cfg.SheetName)
		if err != nil {
			return nil, fmt.Errorf("dedicated sheets source for %s: %w", c.Key, err)
		}
		src.Dedicated[c.Key] = cli
		logger.Info("dedicated sheets source configured",
			log.FieldClusterKey, c.Key, "sheet_id", sheetID)
	}
	return src, nil
}

func dedicatedSheetID(cfg *config.Config, c core.Cluster) string {
	if id, ok := cfg.ClusterSheetIDs[c.Key]; ok {
		return id
	}
	return c.SheetID
}

// effectiveClusters reconciles each cluster's selection regime with the
// wired sources: a cluster without a dedicated source of its own is
// carved out of the shared pool by content filtering instead.
func effectiveClusters(cfg *config.Config, clusters []core.Cluster, dedicated map[string]sheets.RowSource) []core.Cluster {
	out := make([]core.Cluster, len(clusters))
	copy(out, clusters)
	for i := range out {
		if _, ok := dedicated[out[i].Key]; ok {
			out[i].SheetID = dedicatedSheetID(cfg, out[i])
		} else {
			out[i].SheetID = ""
		}
	}
	return out
}
