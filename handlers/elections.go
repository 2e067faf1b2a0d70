// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/auth"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/endpoint"
	"github.com/danielhkuo/ranked-elections/middleware"
	"github.com/danielhkuo/ranked-elections/models"
	"github.com/danielhkuo/ranked-elections/store"
)

type ElectionHandler struct {
	store *store.Store
	cfg   cliparse.Config
	now   func() time.Time
}

func NewElectionHandler(st *store.Store, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{store: st, cfg: cfg, now: time.Now}
}

// ListElections handles GET /v1/elections
func (h *ElectionHandler) ListElections(w *endpoint.Response, r *http.Request) error {
	key := endpoint.Key(r.Context())
	query := r.URL.Query()

	limit := h.cfg.MaxLimit
	if query.Has("limit") {
		raw := query.Get("limit")
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > h.cfg.MaxLimit {
			return apperr.LimitType(raw)
		}
		limit = parsed
	}

	var after string
	if query.Has("after") {
		id, err := auth.ParseElectionID(query.Get("after"))
		if err != nil {
			return err
		}
		after = id
	}

	elections, err := h.store.ListElections(r.Context(), after, limit)
	if err != nil {
		return err
	}

	public := make([]models.PublicElection, 0, len(elections))
	for _, e := range elections {
		public = append(public, e.Public(key))
	}
	w.Send(http.StatusOK, models.ElectionsResponse{Elections: public})
	return nil
}

// CreateElection handles POST /v1/elections
func (h *ElectionHandler) CreateElection(w *endpoint.Response, r *http.Request) error {
	if len(r.URL.Query()) > 0 {
		return apperr.Validation("query parameters are only allowed with GET requests")
	}

	var req models.NewElection
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		return err
	}

	e, err := validateNewElection(req, h.now().UnixMilli(), h.cfg.MaxOptionsPerElection)
	if err != nil {
		return err
	}
	e.ID = auth.NewElectionID()
	e.Owner = endpoint.Key(r.Context())

	if err := h.store.CreateElection(r.Context(), e); err != nil {
		return err
	}

	slog.Info("election created", "election_id", e.ID, "options", len(e.Options))

	w.Send(http.StatusOK, models.CreateElectionResponse{ElectionID: e.ID})
	return nil
}

// GetElection handles GET /v1/election/{id}
func (h *ElectionHandler) GetElection(w *endpoint.Response, r *http.Request) error {
	key := endpoint.Key(r.Context())
	e, err := loadElection(r.Context(), h.store, r.PathValue("id"))
	if err != nil {
		return err
	}

	w.Send(http.StatusOK, e.Public(key))
	return nil
}

// UpdateElection handles PUT /v1/election/{id}
func (h *ElectionHandler) UpdateElection(w *endpoint.Response, r *http.Request) error {
	key := endpoint.Key(r.Context())
	e, err := h.owned(r.Context(), r.PathValue("id"), key)
	if err != nil {
		return err
	}

	raw, err := readBody(r)
	if err != nil {
		return err
	}
	patch, err := decodePatch(raw)
	if err != nil {
		return err
	}
	updated, err := applyPatch(e, patch, h.cfg.MaxOptionsPerElection)
	if err != nil {
		return err
	}

	if err := h.store.UpdateElection(r.Context(), updated); err != nil {
		return err
	}

	slog.Info("election updated", "election_id", updated.ID)

	w.Send(http.StatusOK, updated.Public(key))
	return nil
}

// DeleteElection handles DELETE /v1/election/{id}. Deletion is soft: the
// election stays listed and readable, flagged deleted.
func (h *ElectionHandler) DeleteElection(w *endpoint.Response, r *http.Request) error {
	key := endpoint.Key(r.Context())
	e, err := h.owned(r.Context(), r.PathValue("id"), key)
	if err != nil {
		return err
	}

	if !e.Deleted {
		e.Deleted = true
		if err := h.store.UpdateElection(r.Context(), e); err != nil {
			return err
		}
		slog.Info("election deleted", "election_id", e.ID)
	}

	w.Send(http.StatusOK, nil)
	return nil
}

// CollectionStub handles /v1/election without an id. Nothing is served
// there yet, so the dispatcher answers 501.
func (h *ElectionHandler) CollectionStub(w *endpoint.Response, r *http.Request) error {
	return nil
}

// owned loads an election the caller owns.
func (h *ElectionHandler) owned(ctx context.Context, rawID, key string) (models.Election, error) {
	e, err := loadElection(ctx, h.store, rawID)
	if err != nil {
		return models.Election{}, err
	}
	if e.Owner != key {
		return models.Election{}, apperr.NotAuthorized()
	}
	return e, nil
}

// loadElection parses rawID and loads the election, deleted or not.
func loadElection(ctx context.Context, st *store.Store, rawID string) (models.Election, error) {
	id, err := auth.ParseElectionID(rawID)
	if err != nil {
		return models.Election{}, err
	}
	e, err := st.GetElection(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	return e, nil
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, apperr.TooLarge()
		}
		return nil, err
	}
	return raw, nil
}
