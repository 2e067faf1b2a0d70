// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package endpoint is the admission pipeline every API request goes through.

# Pipeline

	CORS          OPTIONS preflight answered with 200
	AUTH          401 unless the key header holds a registered key
	BODY SIZE     413 over MAX_CONTENT_LENGTH_BYTES
	METHOD        405 for DISALLOWED_METHODS, DISALLOW_WRITES, or the route's whitelist
	CONTRIVED     555 every REQUESTS_PER_CONTRIVED_ERROR admitted requests
	RATE LIMIT    429 with retryAfter (ms) and Retry-After (s)
	HANDLER       handler's status, mapped error, or 501 if it sent nothing

# Handlers

	d := endpoint.NewDispatcher(cfg, st, st, checker, contrived.New(cfg.RequestsPerContrivedError))
	mux.Handle("/api/v1/meta", d.Handle([]string{"GET"}, metaHandler.GetMeta))
	mux.Handle("/api/v1/election/{id}", d.HandleMethods(endpoint.Methods{
		http.MethodGet: electionHandler.GetElection,
		http.MethodPut: electionHandler.UpdateElection,
	}))

A handler calls w.Send for success; the body is merged with
{"success": true}. On failure it returns an apperr error and the
dispatcher picks the status and message. Unknown errors become a generic
500.

# Request Log

Sending any response, from any stage, writes exactly one request log entry
with the final status. The logged route has the /api prefix stripped. Every
response carries an X-Request-ID header (xid, or the caller's own).
*/
package endpoint
