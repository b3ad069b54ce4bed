// Package dashboard orchestrates fetching, combining and aggregating
// expense rows across all store clusters.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pcfdash/internal/core"
	"pcfdash/internal/log"
	"pcfdash/internal/sheets"
)

// SharedSourceName identifies the shared expense pool that clusters
// without a dedicated sheet are filtered from.
const SharedSourceName = "shared"

// ClusterReport is the aggregated view of one cluster for a refresh.
type ClusterReport struct {
	Cluster        core.Cluster
	Rows           []core.Row
	Stats          core.StatsSnapshot
	Categories     []core.CategoryAmount
	CostCenters    []core.CostCenterBucket
	AvgTransaction decimal.Decimal
	TopCategory    string
	LastEntry      time.Time
	HasLastEntry   bool
}

// RefreshResult holds everything one refresh produced. Results carry a
// generation number so a slow refresh can never overwrite a newer one.
type RefreshResult struct {
	Generation uint64
	FetchedAt  time.Time
	Rows       []core.Row
	Stats      core.StatsSnapshot
	Categories []core.CategoryAmount
	Clusters   []ClusterReport
	// SourceRows retains each succeeded source's rows by source name.
	// A source absent from the map failed that round (see Errors),
	// which is how a consumer tells "cluster empty because its source
	// failed" from "cluster genuinely has no rows".
	SourceRows map[string][]core.Row
	Errors     map[string]error
}

// AllEmpty reports whether the refresh produced no rows at all, which
// the API layer renders as an explicit empty state rather than an error.
func (r *RefreshResult) AllEmpty() bool {
	return len(r.Rows) == 0
}

// Cluster returns the report for the given cluster key.
func (r *RefreshResult) Cluster(key string) (ClusterReport, bool) {
	for _, cr := range r.Clusters {
		if cr.Cluster.Key == key {
			return cr, true
		}
	}
	return ClusterReport{}, false
}

// Service fetches all configured sources, combines their rows and keeps
// the latest aggregated result in memory.
type Service struct {
	clusters  []core.Cluster
	shared    sheets.RowSource
	dedicated map[string]sheets.RowSource
	logger    *log.Logger
	now       func() time.Time

	generation atomic.Uint64

	mu     sync.RWMutex
	latest *RefreshResult
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a dashboard service. The shared source feeds clusters
// without a dedicated sheet; dedicated maps cluster keys to their own
// sources.
func New(clusters []core.Cluster, shared sheets.RowSource, dedicated map[string]sheets.RowSource, logger *log.Logger, opts ...Option) *Service {
	s := &Service{
		clusters:  clusters,
		shared:    shared,
		dedicated: dedicated,
		logger:    logger.WithComponent(log.ComponentDashboard),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches every source concurrently, aggregates the combined
// rows and installs the result as the latest view. A source failure
// degrades that source to zero rows instead of failing the refresh;
// only the caller's context expiring aborts it. If a newer refresh
// finished first, this result is discarded and the newer one returned.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	gen := s.generation.Add(1)
	started := s.now()

	type fetchOutcome struct {
		name string
		rows []core.Row
		err  error
	}

	sources := make([]sheets.RowSource, 0, len(s.dedicated)+1)
	if s.shared != nil {
		sources = append(sources, s.shared)
	}
	for _, c := range s.clusters {
		if src, ok := s.dedicated[c.Key]; ok {
			sources = append(sources, src)
		}
	}

	outcomes := make([]fetchOutcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			rows, err := src.Fetch(gctx)
			if err != nil {
				s.logger.WarnContext(gctx, "source fetch failed, continuing without it",
					log.FieldSource, src.Name(),
					log.FieldGeneration, gen,
					log.FieldError, err.Error())
				outcomes[i] = fetchOutcome{name: src.Name(), err: err}
				return nil
			}
			outcomes[i] = fetchOutcome{name: src.Name(), rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var combined []core.Row
	bySource := make(map[string][]core.Row)
	errs := make(map[string]error)
	for _, o := range outcomes {
		if o.err != nil {
			errs[o.name] = o.err
			continue
		}
		bySource[o.name] = o.rows
		combined = append(combined, o.rows...)
	}

	now := s.now()
	res := &RefreshResult{
		Generation: gen,
		FetchedAt:  started,
		Rows:       combined,
		Stats:      core.Aggregate(combined, now),
		Categories: core.BreakdownByCategory(combined),
		SourceRows: bySource,
		Errors:     errs,
	}
	for _, c := range s.clusters {
		res.Clusters = append(res.Clusters, s.buildReport(c, bySource, now))
	}

	s.logger.InfoContext(ctx, "refresh complete",
		log.FieldGeneration, gen,
		log.FieldRowCount, len(combined),
		"source_errors", len(errs),
		log.FieldDuration, s.now().Sub(started).Milliseconds())

	return s.commit(ctx, res), nil
}

// buildReport selects a cluster's rows from its own pool: the
// dedicated source's rows when it has one, the shared pool otherwise.
// Content filtering never sees dedicated rows.
func (s *Service) buildReport(c core.Cluster, bySource map[string][]core.Row, now time.Time) ClusterReport {
	pool := bySource[SharedSourceName]
	if c.HasDedicatedSource() {
		pool = bySource[c.Key]
	}
	rows := core.SelectRows(pool, c)
	report := ClusterReport{
		Cluster:     c,
		Rows:        rows,
		Stats:       core.Aggregate(rows, now),
		Categories:  core.BreakdownByCategory(rows),
		CostCenters: core.BreakdownByCostCenter(rows, c),
	}
	if report.Stats.TransactionCount > 0 {
		report.AvgTransaction = report.Stats.Total.
			Div(decimal.NewFromInt(int64(report.Stats.TransactionCount)))
	}
	if len(report.Categories) > 0 {
		report.TopCategory = report.Categories[0].Name
	}
	report.LastEntry, report.HasLastEntry = core.LatestEntry(rows, now)
	return report
}

// commit installs res as the latest view unless a newer generation
// already landed, in which case the newer result wins.
func (s *Service) commit(ctx context.Context, res *RefreshResult) *RefreshResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil && s.latest.Generation > res.Generation {
		s.logger.InfoContext(ctx, "refresh superseded, discarding result",
			log.FieldGeneration, res.Generation,
			"latest_generation", s.latest.Generation)
		return s.latest
	}
	s.latest = res
	return res
}

// Latest returns the most recent refresh result, if any.
func (s *Service) Latest() (*RefreshResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// Clusters returns the configured cluster table.
func (s *Service) Clusters() []core.Cluster {
	return s.clusters
}
