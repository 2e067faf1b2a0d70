// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/endpoint"
	"github.com/danielhkuo/ranked-elections/handlers"
	"github.com/danielhkuo/ranked-elections/middleware"
	"github.com/danielhkuo/ranked-elections/store"
)

// anyMethod is every method an API route can be asked for. Routes that
// accept all of them still go through method screening, so that
// DISALLOWED_METHODS and DISALLOW_WRITES apply.
var anyMethod = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE"}

// NewRouter mounts every endpoint. API routes are registered without a
// method in the pattern: the dispatcher answers 405 itself, after
// authentication.
func NewRouter(st *store.Store, cfg cliparse.Config, d *endpoint.Dispatcher) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(st, cfg)
	votersHandler := handlers.NewVotersHandler(st, cfg)
	metaHandler := handlers.NewMetaHandler(st)

	// Health check
	mux.Handle("GET /health", middleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})))

	// Elections
	mux.Handle("/api/v1/elections", d.HandleMethods(endpoint.Methods{
		http.MethodGet:  electionHandler.ListElections,
		http.MethodPost: electionHandler.CreateElection,
	}))
	mux.Handle("/api/v1/election", d.Handle(anyMethod, electionHandler.CollectionStub))
	mux.Handle("/api/v1/election/{id}", d.HandleMethods(endpoint.Methods{
		http.MethodGet:    electionHandler.GetElection,
		http.MethodPut:    electionHandler.UpdateElection,
		http.MethodDelete: electionHandler.DeleteElection,
	}))
	mux.Handle("/api/v1/election/{id}/voters", d.HandleMethods(endpoint.Methods{
		http.MethodGet: votersHandler.GetVoters,
		http.MethodPut: votersHandler.ReplaceVoters,
	}))

	// Metadata
	mux.Handle("/api/v1/meta", d.Handle([]string{"GET"}, metaHandler.GetMeta))

	// Unknown API routes are still authenticated, screened and logged
	mux.Handle("/api/", d.Handle(anyMethod, func(w *endpoint.Response, r *http.Request) error {
		return apperr.NotFound("")
	}))

	// Root endpoint
	mux.Handle("GET /{$}", middleware.CORS(middleware.WithLogging(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ranked-elections API v1"))
	})))

	return mux
}
