// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/endpoint"
	"github.com/danielhkuo/ranked-elections/store"
	"github.com/danielhkuo/ranked-elections/testutil"
)

type testServer struct {
	conn *sql.DB
	st   *store.Store
	cfg  cliparse.Config
	mux  *http.ServeMux
}

// newTestServer mounts the handlers behind a dispatcher with no request log
// and no rate limiter.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	st := store.New(conn)
	cfg := testutil.GetTestConfig()
	d := endpoint.NewDispatcher(cfg, st, nil, nil, nil)

	elections := NewElectionHandler(st, cfg)
	voters := NewVotersHandler(st, cfg)
	meta := NewMetaHandler(st)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/elections", d.HandleMethods(endpoint.Methods{
		http.MethodGet:  elections.ListElections,
		http.MethodPost: elections.CreateElection,
	}))
	mux.Handle("/api/v1/election", d.Handle([]string{"GET", "POST", "PUT", "DELETE"}, elections.CollectionStub))
	mux.Handle("/api/v1/election/{id}", d.HandleMethods(endpoint.Methods{
		http.MethodGet:    elections.GetElection,
		http.MethodPut:    elections.UpdateElection,
		http.MethodDelete: elections.DeleteElection,
	}))
	mux.Handle("/api/v1/election/{id}/voters", d.HandleMethods(endpoint.Methods{
		http.MethodGet: voters.GetVoters,
		http.MethodPut: voters.ReplaceVoters,
	}))
	mux.Handle("/api/v1/meta", d.Handle([]string{"GET"}, meta.GetMeta))

	return &testServer{conn: conn, st: st, cfg: cfg, mux: mux}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}
