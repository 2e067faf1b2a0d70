// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/danielhkuo/ranked-elections/models"
)

// LogSource is the read side of the request log.
type LogSource interface {
	OffendersByKey(ctx context.Context, since, bucket int64, threshold int) ([]models.Offender, error)
	OffendersByIP(ctx context.Context, since, bucket int64, threshold int) ([]models.Offender, error)
}

// Lookup answers point queries against the limited view.
type Lookup interface {
	ActiveLimit(ctx context.Context, ip, key string, now int64) (*models.LimitedEntry, error)
}

// View is the materialized "limited until" view.
type View interface {
	Lookup
	LimitedSince(ctx context.Context, cutoff int64) ([]models.LimitedEntry, error)
	ReplaceLimited(ctx context.Context, entries []models.LimitedEntry) error
}

// Aggregator rebuilds the limited view from the request log.
type Aggregator struct {
	logs   LogSource
	view   View
	policy Policy
	now    func() time.Time
}

func NewAggregator(logs LogSource, view View, policy Policy) *Aggregator {
	return &Aggregator{logs: logs, view: view, policy: policy, now: time.Now}
}

// WithClock replaces the aggregator's time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// RunResult summarises one aggregation pass.
type RunResult struct {
	KeyOffenders int
	IPOffenders  int
	CarriedOver  int
	Escalated    int
	Rows         int
}

// Run performs one full pass: scan the log window, collect carry-over rows,
// merge, and overwrite the view.
func (a *Aggregator) Run(ctx context.Context) (RunResult, error) {
	now := a.now().UnixMilli()
	since := now - a.policy.Lookback.Milliseconds()
	bucket := a.policy.Bucket.Milliseconds()

	byKey, err := a.logs.OffendersByKey(ctx, since, bucket, a.policy.Threshold)
	if err != nil {
		return RunResult{}, fmt.Errorf("key offenders: %w", err)
	}
	byIP, err := a.logs.OffendersByIP(ctx, since, bucket, a.policy.Threshold)
	if err != nil {
		return RunResult{}, fmt.Errorf("ip offenders: %w", err)
	}
	previous, err := a.view.LimitedSince(ctx, now-a.policy.Grace.Milliseconds())
	if err != nil {
		return RunResult{}, fmt.Errorf("carry-over: %w", err)
	}

	rows, escalated := Merge(now, byKey, byIP, previous, a.policy)
	if err := a.view.ReplaceLimited(ctx, rows); err != nil {
		return RunResult{}, fmt.Errorf("replace view: %w", err)
	}

	result := RunResult{
		KeyOffenders: len(byKey),
		IPOffenders:  len(byIP),
		CarriedOver:  len(previous),
		Escalated:    escalated,
		Rows:         len(rows),
	}
	slog.Info("abuse aggregation complete",
		"key_offenders", result.KeyOffenders,
		"ip_offenders", result.IPOffenders,
		"carried_over", result.CarriedOver,
		"escalated", result.Escalated,
		"rows", result.Rows,
	)
	return result, nil
}

type subject struct {
	ip, key string
	hasIP   bool
	hasKey  bool
}

func subjectOf(e models.LimitedEntry) subject {
	var s subject
	if e.IP != nil && *e.IP != "" {
		s.ip, s.hasIP = *e.IP, true
	}
	if e.Key != nil && *e.Key != "" {
		s.key, s.hasKey = *e.Key, true
	}
	return s
}

// Merge unions fresh key offenders, fresh IP offenders and carry-over rows,
// then groups them by (ip, key). Every fresh (subject, bucket) offence counts
// as one record; a group with more than one record is a repeat offender and
// gets now+LongBan, a single record keeps its own until. It returns the new
// view and how many groups were escalated.
func Merge(now int64, byKey, byIP []models.Offender, previous []models.LimitedEntry, p Policy) ([]models.LimitedEntry, int) {
	shortUntil := now + p.ShortBan.Milliseconds()
	longUntil := now + p.LongBan.Milliseconds()

	type group struct {
		entry models.LimitedEntry
		count int
	}
	groups := map[subject]*group{}
	add := func(e models.LimitedEntry) {
		s := subjectOf(e)
		if !s.hasIP && !s.hasKey {
			return
		}
		if g, ok := groups[s]; ok {
			g.count++
			return
		}
		groups[s] = &group{entry: e, count: 1}
	}

	for _, o := range byKey {
		key := o.Subject
		add(models.LimitedEntry{Key: &key, Until: shortUntil})
	}
	for _, o := range byIP {
		ip := o.Subject
		add(models.LimitedEntry{IP: &ip, Until: shortUntil})
	}
	for _, e := range previous {
		add(e)
	}

	rows := make([]models.LimitedEntry, 0, len(groups))
	escalated := 0
	for _, g := range groups {
		e := g.entry
		if g.count > 1 {
			e.Until = longUntil
			escalated++
		}
		rows = append(rows, e)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := subjectOf(rows[i]), subjectOf(rows[j])
		if a.key != b.key {
			return a.key < b.key
		}
		return a.ip < b.ip
	})
	return rows, escalated
}
