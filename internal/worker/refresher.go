package worker

import (
	"context"
	"fmt"
	"time"

	"pcfdash/internal/dashboard"
	"pcfdash/internal/log"
	"pcfdash/internal/storage"
)

// SnapshotStore persists the per-cluster results of a completed refresh.
type SnapshotStore interface {
	SaveRefresh(ctx context.Context, res *dashboard.RefreshResult) ([]storage.Snapshot, error)
}

// EventPublisher announces completed refreshes to interested consumers.
type EventPublisher interface {
	PublishRefreshCompleted(ctx context.Context, res *dashboard.RefreshResult) error
}

// Refresher runs the periodic fetch-and-aggregate cycle in the background.
// Persistence and event publishing are optional; a nil store or publisher
// simply skips that step.
type Refresher struct {
	dash      *dashboard.Service
	snapshots SnapshotStore
	events    EventPublisher
	interval  time.Duration
	timeout   time.Duration
	logger    *log.Logger
}

type Option func(*Refresher)

func WithSnapshotStore(s SnapshotStore) Option {
	return func(r *Refresher) { r.snapshots = s }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(r *Refresher) { r.events = p }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Refresher) { r.timeout = d }
}

func NewRefresher(dash *dashboard.Service, interval time.Duration, logger *log.Logger, opts ...Option) *Refresher {
	r := &Refresher{
		dash:     dash,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RefreshOnce runs a single refresh cycle. A failed fetch aborts the cycle,
// but snapshot and publish failures are logged and do not fail the cycle:
// the in-memory result is already committed and servable.
func (r *Refresher) RefreshOnce(ctx context.Context) (*dashboard.RefreshResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.dash.Refresh(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if r.snapshots != nil {
		if _, err := r.snapshots.SaveRefresh(ctx, res); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist snapshots",
				log.FieldOperation, log.OpSnapshot,
				log.FieldGeneration, res.Generation,
				log.FieldError, err)
		}
	}

	if r.events != nil {
		if err := r.events.PublishRefreshCompleted(ctx, res); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish refresh event",
				log.FieldOperation, log.OpPublish,
				log.FieldGeneration, res.Generation,
				log.FieldError, err)
		}
	}

	return res, nil
}

// Run performs an immediate refresh and then repeats on the configured
// interval until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "refresh worker starting",
		log.FieldOperation, log.OpStartup,
		"interval", r.interval.String())

	if _, err := r.RefreshOnce(ctx); err != nil {
		r.logger.ErrorContext(ctx, "initial refresh failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "refresh worker stopping",
				log.FieldOperation, log.OpShutdown)
			return ctx.Err()
		case <-ticker.C:
			res, err := r.RefreshOnce(ctx)
			if err != nil {
				r.logger.ErrorContext(ctx, "scheduled refresh failed",
					log.FieldOperation, log.OpRefresh,
					log.FieldError, err)
				continue
			}
			r.logger.InfoContext(ctx, "scheduled refresh complete",
				log.FieldOperation, log.OpRefresh,
				log.FieldGeneration, res.Generation,
				log.FieldRowCount, len(res.Rows))
		}
	}
}
