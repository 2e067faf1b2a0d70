// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists keys, elections, rankings, the request log and the
materialized rate-limit view.

	st := store.New(conn)
	if err := st.InsertRequestLog(ctx, entry); err != nil { ... }

The same SQL runs against Postgres (lib/pq) and SQLite (modernc.org/sqlite);
see package db for the schema.

# Errors

Lookups of missing elections return apperr.NotFound. A write that the
database acknowledges without touching a row returns
apperr.GuruMeditation. Everything else is wrapped driver error.

# Aggregation Queries

OffendersByKey and OffendersByIP are the windowed GROUP BY half of the abuse
aggregator; ReplaceLimited is its atomic write half. ActiveLimit is the
point lookup behind every rate-limit decision.
*/
package store
