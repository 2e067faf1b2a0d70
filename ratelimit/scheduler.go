// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Pruner trims the request log after each aggregation pass.
type Pruner interface {
	PruneRequestLog(ctx context.Context, maxRows int) (int64, error)
}

// Scheduler runs the aggregator on a fixed interval.
type Scheduler struct {
	agg      *Aggregator
	pruner   Pruner
	interval time.Duration
	maxRows  int
}

// NewScheduler returns a scheduler. pruner may be nil.
func NewScheduler(agg *Aggregator, pruner Pruner, interval time.Duration, maxRows int) *Scheduler {
	return &Scheduler{agg: agg, pruner: pruner, interval: interval, maxRows: maxRows}
}

// Start runs one pass immediately and then one per tick until ctx is done.
// A failed pass is logged and retried on the next tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.agg == nil {
		return errors.New("abuse scheduler is not configured")
	}
	interval := s.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one aggregation pass followed by log pruning.
func (s *Scheduler) Tick(ctx context.Context) {
	if _, err := s.agg.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("abuse aggregation failed", "error", err)
	}
	if s.pruner == nil || s.maxRows <= 0 {
		return
	}
	removed, err := s.pruner.PruneRequestLog(ctx, s.maxRows)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("request log pruning failed", "error", err)
		}
		return
	}
	if removed > 0 {
		slog.Info("request log pruned", "removed", removed)
	}
}
