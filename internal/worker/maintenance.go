// Package worker holds the background maintenance loop that advances contact
// lifecycles and keeps customer classifications fresh.
package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/service/contact"
	"github.com/lavapop/outreach-api/internal/service/segment"
	"github.com/lavapop/outreach-api/pkg/logger"
	"github.com/lavapop/outreach-api/pkg/metrics"
)

type MaintenanceWorker struct {
	contacts *contact.Service
	segments *segment.Service
	cfg      config.WorkerConfig
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewMaintenanceWorker(
	contacts *contact.Service,
	segments *segment.Service,
	cfg config.WorkerConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) *MaintenanceWorker {
	return &MaintenanceWorker{
		contacts: contacts,
		segments: segments,
		cfg:      cfg,
		metrics:  m,
		logger:   log,
	}
}

// Start runs the maintenance loop until the context is cancelled. Lifecycle
// passes run every poll interval; the full metrics refresh runs on its own
// slower cadence.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	poll := time.NewTicker(w.cfg.PollInterval)
	refresh := time.NewTicker(w.cfg.RefreshInterval)
	defer poll.Stop()
	defer refresh.Stop()

	w.logger.Info("maintenance worker started",
		"poll_interval", w.cfg.PollInterval.String(),
		"refresh_interval", w.cfg.RefreshInterval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("maintenance worker shutting down")
			return
		case <-poll.C:
			if err := w.RunBatch(ctx); err != nil {
				w.logger.Error(err, "maintenance batch failed")
			}
		case <-refresh.C:
			updated, err := w.segments.RefreshAll(ctx)
			if err != nil {
				w.logger.Error(err, "metrics refresh failed")
				continue
			}
			w.logger.Info("customer metrics refreshed", "updated", updated)
		}
	}
}

// RunBatch executes one maintenance pass: resolve returns, expire stale
// contacts, link coupon redemptions. Each step is reentrant, so a partial
// failure is retried naturally on the next tick.
func (w *MaintenanceWorker) RunBatch(ctx context.Context) error {
	if w.metrics != nil {
		w.metrics.MaintenanceRuns.Inc()
		timer := prometheus.NewTimer(w.metrics.MaintenanceTime)
		defer timer.ObserveDuration()
	}

	returned, err := w.contacts.DetectReturns(ctx, w.cfg.BatchSize)
	if err != nil {
		return w.fail(err)
	}

	expired, err := w.contacts.ExpireStale(ctx, w.cfg.BatchSize)
	if err != nil {
		return w.fail(err)
	}

	linked, err := w.contacts.LinkCouponRedemptions(ctx, w.cfg.BatchSize)
	if err != nil {
		return w.fail(err)
	}

	if returned+expired+linked > 0 {
		w.logger.Info("maintenance batch done",
			"returned", returned, "expired", expired, "coupons_linked", linked)
	}
	return nil
}

func (w *MaintenanceWorker) fail(err error) error {
	if w.metrics != nil {
		w.metrics.MaintenanceFails.Inc()
	}
	return err
}
