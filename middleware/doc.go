// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap unauthenticated handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

API routes are logged by the endpoint dispatcher instead.

# CORS

	mux.Handle("GET /health", middleware.CORS(healthHandler))

Allows methods GET, POST, PUT, PATCH, DELETE, OPTIONS with headers
Content-Type, Key and X-Request-ID. The dispatcher calls SetCORSHeaders
directly so that preflight requests are logged like any other.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes strictly and returns taxonomy errors, so handlers can
pass the error straight up:

	var req models.NewElection
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		return err
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

The result feeds the request log and the IP half of rate limiting.
*/
package middleware
