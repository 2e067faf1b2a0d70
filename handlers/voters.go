// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/endpoint"
	"github.com/danielhkuo/ranked-elections/middleware"
	"github.com/danielhkuo/ranked-elections/models"
	"github.com/danielhkuo/ranked-elections/store"
)

type VotersHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewVotersHandler(st *store.Store, cfg cliparse.Config) *VotersHandler {
	return &VotersHandler{store: st, cfg: cfg}
}

// GetVoters handles GET /v1/election/{id}/voters
func (h *VotersHandler) GetVoters(w *endpoint.Response, r *http.Request) error {
	e, err := loadElection(r.Context(), h.store, r.PathValue("id"))
	if err != nil {
		return err
	}

	votes, err := h.store.GetRankings(r.Context(), e.ID)
	if err != nil {
		return err
	}
	if votes == nil {
		votes = []models.VoterRanking{}
	}

	w.Send(http.StatusOK, models.VotesResponse{Votes: votes})
	return nil
}

// ReplaceVoters handles PUT /v1/election/{id}/voters. The body replaces the
// election's rankings wholesale.
func (h *VotersHandler) ReplaceVoters(w *endpoint.Response, r *http.Request) error {
	key := endpoint.Key(r.Context())
	e, err := loadElection(r.Context(), h.store, r.PathValue("id"))
	if err != nil {
		return err
	}
	if e.Owner != key {
		return apperr.NotAuthorized()
	}

	var votes []models.VoterRanking
	if err := middleware.ParseJSONBody(r, &votes); err != nil {
		return err
	}
	if err := validateRankings(votes, e.Options, h.cfg.MaxRankingsPerElection); err != nil {
		return err
	}

	if err := h.store.ReplaceRankings(r.Context(), e.ID, votes); err != nil {
		return err
	}

	slog.Info("rankings replaced", "election_id", e.ID, "voters", len(votes))

	w.Send(http.StatusOK, nil)
	return nil
}
