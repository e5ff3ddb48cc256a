// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

const defaultInterval = 30 * time.Second

// Promoter starts voting for elections whose scheduled start has passed.
type Promoter interface {
	PromoteDue(ctx context.Context) (int, error)
}

// Counter records how many elections a sweep promoted.
type Counter interface {
	AddScheduledStarts(n int)
}

// Worker periodically sweeps for elections due to start voting.
type Worker struct {
	Elections Promoter
	Interval  time.Duration
	Counter   Counter
	Logger    *slog.Logger
}

func (w Worker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// RunOnce performs a single sweep.
func (w Worker) RunOnce(ctx context.Context) error {
	logger := w.logger()

	promoted, err := w.Elections.PromoteDue(ctx)
	if w.Counter != nil {
		w.Counter.AddScheduledStarts(promoted)
	}
	if err != nil {
		logger.Error("scheduled voting sweep failed",
			"event", "scheduler.sweep_failed",
			"module", "scheduler",
			"promoted_count", promoted,
			"error", err.Error(),
		)
		return err
	}
	if promoted > 0 {
		logger.Info("scheduled voting sweep completed",
			"event", "scheduler.sweep_completed",
			"module", "scheduler",
			"promoted_count", promoted,
		)
	}
	return nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Sweep failures are logged and do not stop the loop.
func (w Worker) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger().Info("scheduler started", "module", "scheduler", "interval", interval.String())

	for {
		_ = w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger().Info("scheduler stopped", "module", "scheduler")
			return nil
		case <-ticker.C:
		}
	}
}
