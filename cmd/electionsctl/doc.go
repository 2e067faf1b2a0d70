// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Command electionsctl operates a ranked elections database.

	electionsctl init-db
	electionsctl keys create --owner alice
	electionsctl keys list
	electionsctl hydrate -f seed.yaml
	electionsctl aggregate

Connection settings come from the same flags and environment variables as
the server (-d/DATABASE_URL, -t/DATABASE_TYPE, --redis/REDIS_URL), and a
.env file is honoured. Every command creates missing tables first.

A seed file looks like:

	keys:
	  - key: 6f1c1f5e-7a8b-4c1d-9e2f-0a1b2c3d4e5f
	    owner: alice
	elections:
	  - owner: 6f1c1f5e-7a8b-4c1d-9e2f-0a1b2c3d4e5f
	    title: Lunch
	    options: [Pizza, Sushi]
	    opens: 1767225600000
	    closes: 1767312000000
	    rankings:
	      - voter_id: v1
	        ranking: [Sushi, Pizza]

Elections without an id get a fresh one on every run; give them an id to
make the seed repeatable.
*/
package main
