// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Connecting

Open picks the driver from DATABASE_TYPE ("postgres" or "sqlite") and pings:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on Postgres (lib/pq) and SQLite (modernc.org/sqlite).

# Tables

  - api_key: registered API keys and their owners
  - election: election documents (options as JSON text)
  - ranking: one ranking per voter per election, stored verbatim
  - request_log: one row per completed response
  - limited_log_mview: rate-limit view rebuilt by the abuse aggregator

# Relationships

	api_key 1──* election
	election 1──* ranking

request_log and limited_log_mview reference keys by value only; rows must
survive key removal.

# Indexes

  - election.(created, id) for pagination
  - election.owner
  - request_log.time_ms for windowed aggregation
  - limited_log_mview.ip and limited_log_mview.api_key for point lookups

All timestamps are BIGINT milliseconds since the Unix epoch.
*/
package db
