// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	if err := cliparse.LoadEnvFiles(); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

LoadEnvFiles reads a .env file (if present) without overriding variables
that are already set.

# CLI Flags

	-p       Server port
	-d       Database URL
	-t       Database type (sqlite or postgres)
	-redis   Redis URL for the rate-limit view

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p (default 3318)
	DATABASE_URL  → -d (required)
	DATABASE_TYPE → -t (default sqlite)
	REDIS_URL     → -redis

Admission and validation settings are environment only:

	MAX_LIMIT                     page size ceiling (default 100)
	REQUESTS_PER_CONTRIVED_ERROR  every Nth request fails with 555; 0 disables
	LOCKOUT_ALL_KEYS              reject every key with 401
	DISALLOWED_METHODS            comma separated global method blacklist
	IGNORE_RATE_LIMITS            skip the rate-limit lookup (alias DISABLE_RATE_LIMITS)
	DISALLOW_WRITES               treat POST, PUT, PATCH, DELETE as disallowed
	MAX_CONTENT_LENGTH_BYTES      body size ceiling, e.g. "100kb"
	MAX_OPTIONS_PER_ELECTION
	MAX_RANKINGS_PER_ELECTION

Abuse aggregation policy (Go durations):

	ABUSE_LOOKBACK (1m)  ABUSE_BUCKET (10s)  ABUSE_THRESHOLD (10)
	ABUSE_SHORT_BAN (15m)  ABUSE_LONG_BAN (1h)  ABUSE_GRACE (30m)
	ABUSE_INTERVAL (1m)  REQUEST_LOG_MAX_ROWS (10000)

Keep ABUSE_INTERVAL at or above ABUSE_LOOKBACK: a shorter interval counts
the same burst in two passes, which escalates it to the long ban.

# Validation

ParseFlags refuses to return a config the server cannot run with: missing
DATABASE_URL, unparsable numbers, negative counts, or a long ban shorter
than the short ban all produce an error.
*/
package cliparse
