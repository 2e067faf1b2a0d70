// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ranked elections API server.

The server stores elections and the voters' rankings for them, keyed by
owner API key. It does not tally rankings. Every API request passes through
a fixed admission pipeline before reaching business logic:

	CORS -> authentication (401) -> body size (413) -> method (405)
	     -> contrived error (555) -> rate limit (429) -> handler

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:elections.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first; real environment
variables win over it.

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - REDIS_URL (-redis): keep the rate-limit view in Redis

See package cliparse for admission and abuse policy settings.

# Background Work

An abuse scheduler runs every ABUSE_INTERVAL. Each pass rebuilds the
rate-limit view from the request log and prunes the log to
REQUEST_LOG_MAX_ROWS.

# Architecture

  - endpoint: admission pipeline and response envelope
  - handlers: elections, voters, meta
  - router: route definitions using Go 1.22+ routing
  - ratelimit: abuse aggregator, checker, scheduler, Redis view
  - contrived: every-Nth-request error injector
  - store: SQL persistence
  - apperr: error taxonomy and status mapping
  - middleware: CORS, logging, JSON helpers
  - models: request/response types
  - auth: API keys and election ids
  - db: connection and schema creation
  - cliparse: configuration parsing

The electionsctl command (cmd/electionsctl) manages keys and seed data.
*/
package main
