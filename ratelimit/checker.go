// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"time"

	"github.com/danielhkuo/ranked-elections/models"
)

// Checker answers whether a caller is currently limited.
type Checker struct {
	view Lookup
	now  func() time.Time
}

func NewChecker(view Lookup) *Checker {
	return &Checker{view: view, now: time.Now}
}

// WithClock replaces the checker's time source.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// IsRateLimited looks up ip OR key in the view. An empty ip or key never
// matches. retryAfter is never negative.
func (c *Checker) IsRateLimited(ctx context.Context, ip, key string) (models.RateLimitDecision, error) {
	now := c.now().UnixMilli()
	entry, err := c.view.ActiveLimit(ctx, ip, key, now)
	if err != nil {
		return models.RateLimitDecision{}, err
	}
	if entry == nil || !entry.Active(now) {
		return models.RateLimitDecision{}, nil
	}
	return models.RateLimitDecision{
		Limited:      true,
		RetryAfterMs: max(0, entry.Until-now),
	}, nil
}
