package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/petra-dev/upwatch/internal/checker"
	"github.com/petra-dev/upwatch/internal/metrics"
	"github.com/petra-dev/upwatch/internal/registry"
)

// Refresher periodically walks the service registry and re-evaluates each
// service, persisting the resulting status and timestamp. Services are
// checked one at a time, each fetch awaited fully before the next starts.
type Refresher struct {
	store    registry.Store
	checker  checker.Checker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a Refresher. An interval of zero disables the loop; Run
// returns immediately in that case. Pass nil logger to discard logs.
func New(store registry.Store, c checker.Checker, interval, timeout time.Duration, logger *zap.Logger) *Refresher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		store:    store,
		checker:  c,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run starts the refresh loop: an immediate pass, then one per tick. It
// blocks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval == 0 {
		r.logger.Info("refresh loop disabled")
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RefreshAll(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh loop stopped")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll evaluates every registered service sequentially, in
// registration order, and records each outcome in the store.
func (r *Refresher) RefreshAll(ctx context.Context) {
	services, err := r.store.List(ctx)
	if err != nil {
		r.logger.Warn("listing services for refresh", zap.Error(err))
		return
	}

	for _, svc := range services {
		if ctx.Err() != nil {
			return
		}
		r.RefreshService(ctx, svc)
	}
}

// RefreshService evaluates a single service and records the outcome.
func (r *Refresher) RefreshService(ctx context.Context, svc registry.Service) checker.CheckResult {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result := r.checker.Evaluate(cctx, svc.CheckRequest())
	metrics.ObserveEvaluation(svc.Mode, result.Status, time.Since(start))

	if err := r.store.SetStatus(ctx, svc.ID, result.Status, time.Now().UTC()); err != nil {
		r.logger.Warn("recording check result",
			zap.String("service", svc.Name),
			zap.String("id", svc.ID),
			zap.Error(err),
		)
		return result
	}

	r.logger.Info("service checked",
		zap.String("service", svc.Name),
		zap.String("url", svc.URL),
		zap.String("mode", string(svc.Mode)),
		zap.String("status", string(result.Status)),
		zap.String("error", result.Error),
	)
	return result
}
