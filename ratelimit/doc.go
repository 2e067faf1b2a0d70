// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit detects abusive callers and answers rate-limit lookups.

# Aggregation

The Aggregator scans the recent request log, splits it into fixed buckets,
and flags every key and every IP that reaches the threshold in any bucket.
Fresh offenders get a short ban. Rows from the previous view that expired
less than Policy.Grace ago are carried over. Everything is grouped by
(ip, key); a group made of more than one record is a repeat offender and
gets the long ban. The result overwrites the whole view.

	agg := ratelimit.NewAggregator(st, st, ratelimit.NewPolicy(cfg))
	go ratelimit.NewScheduler(agg, st, cfg.AbuseInterval, cfg.RequestLogMaxRows).Start(ctx)

Merge is the pure part of a pass and is what the tests pin down.

# Lookups

	checker := ratelimit.NewChecker(view)
	decision, err := checker.IsRateLimited(ctx, ip, key)

A lookup matches ip OR key, takes the latest still-active until, and
reports the remaining time in milliseconds.

# Views

The SQL view lives in package store. RedisView keeps the same rows in two
Redis hashes and swaps them in with RENAME inside MULTI/EXEC.
*/
package ratelimit
