// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Tables lists every table CreateSchema owns, in creation order.
var Tables = []string{"api_key", "election", "ranking", "request_log", "limited_log_mview"}

// Statements run one at a time; the sqlite and postgres drivers disagree on
// multi-statement Exec with placeholders.
var statements = []string{
	// API keys
	`CREATE TABLE IF NOT EXISTS api_key (
    api_key TEXT PRIMARY KEY,
    owner TEXT NOT NULL
)`,

	// Elections
	`CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL REFERENCES api_key(api_key),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    options TEXT NOT NULL DEFAULT '[]',
    created BIGINT NOT NULL,
    opens BIGINT NOT NULL,
    closes BIGINT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE INDEX IF NOT EXISTS idx_election_created ON election(created, id)`,
	`CREATE INDEX IF NOT EXISTS idx_election_owner ON election(owner)`,

	// Rankings, stored verbatim
	`CREATE TABLE IF NOT EXISTS ranking (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    ranking TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (election_id, voter_id)
)`,

	// Request log
	`CREATE TABLE IF NOT EXISTS request_log (
    ip TEXT,
    api_key TEXT,
    route TEXT NOT NULL,
    method TEXT NOT NULL,
    status INTEGER NOT NULL,
    time_ms BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_request_log_time ON request_log(time_ms)`,

	// Materialized rate-limit view
	`CREATE TABLE IF NOT EXISTS limited_log_mview (
    ip TEXT,
    api_key TEXT,
    until_ms BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_limited_ip ON limited_log_mview(ip)`,
	`CREATE INDEX IF NOT EXISTS idx_limited_key ON limited_log_mview(api_key)`,
}
