package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WorkerService drives the alert detector on a fixed interval. Sweeps are
// idempotent, so an overlapping manual evaluation is harmless.
type WorkerService struct {
	alerts   *AlertService
	interval time.Duration
	logger   *zap.Logger
}

func NewWorkerService(alerts *AlertService, interval time.Duration, logger *zap.Logger) *WorkerService {
	return &WorkerService{
		alerts:   alerts,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the background worker that periodically evaluates alert
// conditions. Blocks until the context is cancelled.
func (w *WorkerService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("alert worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("alert worker stopped")
			return
		case <-ticker.C:
			if _, err := w.alerts.EvaluateAll(ctx); err != nil {
				w.logger.Error("alert sweep failed", zap.Error(err))
			}
		}
	}
}
