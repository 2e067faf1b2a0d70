// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ranked elections API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	d := endpoint.NewDispatcher(cfg, st, st, checker, contrived.New(n))
	mux := router.NewRouter(st, cfg, d)

# Endpoints

Outside the dispatcher:

	GET /health - Database ping
	GET /       - Banner

Through the dispatcher (require the key header):

	GET    /api/v1/elections           - List elections (limit, after)
	POST   /api/v1/elections           - Create election
	GET    /api/v1/election/{id}       - Get election
	PUT    /api/v1/election/{id}       - Patch election (owner)
	DELETE /api/v1/election/{id}       - Soft delete (owner)
	GET    /api/v1/election/{id}/voters - List rankings
	PUT    /api/v1/election/{id}/voters - Replace rankings (owner)
	GET    /api/v1/meta                - Election counts
	*      /api/v1/election            - Not implemented (501)
	*      /api/...                    - Not found (404)

API patterns carry no method, so the dispatcher decides 405 after
authentication instead of the mux.
*/
package router
