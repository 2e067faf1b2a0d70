// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"time"

	"github.com/danielhkuo/ranked-elections/cliparse"
)

// Policy holds the abuse detection constants.
type Policy struct {
	Lookback  time.Duration // window of the request log scanned per run
	Bucket    time.Duration // width of one counting bucket
	Threshold int           // requests per bucket that make an offender
	ShortBan  time.Duration
	LongBan   time.Duration // applied to repeat offenders
	Grace     time.Duration // how far back expired rows are carried over
}

// DefaultPolicy is ten requests per ten seconds, fifteen minutes for a first
// offence and an hour for a repeat.
func DefaultPolicy() Policy {
	return NewPolicy(cliparse.Defaults())
}

// NewPolicy extracts the abuse policy from a validated config.
func NewPolicy(cfg cliparse.Config) Policy {
	return Policy{
		Lookback:  cfg.AbuseLookback,
		Bucket:    cfg.AbuseBucket,
		Threshold: cfg.AbuseThreshold,
		ShortBan:  cfg.AbuseShortBan,
		LongBan:   cfg.AbuseLongBan,
		Grace:     cfg.AbuseGrace,
	}
}
