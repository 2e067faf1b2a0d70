// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/middleware"
	"github.com/danielhkuo/ranked-elections/models"
)

// validateNewElection turns a creation request into an election created at
// now. The caller fills in ID and Owner.
func validateNewElection(req models.NewElection, now int64, maxOptions int) (models.Election, error) {
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return models.Election{}, apperr.Validation("`title` must be a non-empty string")
	}
	if req.Opens == nil || req.Closes == nil {
		return models.Election{}, apperr.Validation("`opens` and `closes` must be numbers")
	}

	e := models.Election{
		Title:   *req.Title,
		Created: now,
		Opens:   *req.Opens,
		Closes:  *req.Closes,
		Options: []string{},
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Options != nil {
		e.Options = *req.Options
	}

	if err := validateOptions(e.Options, maxOptions); err != nil {
		return models.Election{}, err
	}
	if err := validateTimes(e); err != nil {
		return models.Election{}, err
	}
	return e, nil
}

// applyPatch merges p into e and validates the result.
func applyPatch(e models.Election, p models.PatchElection, maxOptions int) (models.Election, error) {
	if p.Empty() {
		return models.Election{}, apperr.UpsertFailed("")
	}

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return models.Election{}, apperr.Validation("`title` must be a non-empty string")
		}
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Options != nil {
		if err := validateOptions(*p.Options, maxOptions); err != nil {
			return models.Election{}, err
		}
		e.Options = *p.Options
	}
	if p.Opens != nil {
		e.Opens = *p.Opens
	}
	if p.Closes != nil {
		e.Closes = *p.Closes
	}
	if p.Deleted != nil {
		e.Deleted = *p.Deleted
	}

	if err := validateTimes(e); err != nil {
		return models.Election{}, err
	}
	return e, nil
}

// decodePatch parses a PUT body. Unlike creation, null is never a valid
// value here: it would be ambiguous with "leave unchanged".
func decodePatch(raw []byte) (models.PatchElection, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.PatchElection{}, apperr.Validation("request body must be a JSON object")
	}
	if len(fields) == 0 {
		return models.PatchElection{}, apperr.UpsertFailed("")
	}
	for name, value := range fields {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return models.PatchElection{}, apperr.Validation("`%s` must not be null", name)
		}
	}

	var p models.PatchElection
	if err := middleware.DecodeJSON(raw, &p); err != nil {
		return models.PatchElection{}, err
	}
	return p, nil
}

func validateOptions(options []string, max int) error {
	if len(options) > max {
		return apperr.Validation("too many options (maximum is %d)", max)
	}
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if o == "" {
			return apperr.Validation("options must be non-empty strings")
		}
		if _, dup := seen[o]; dup {
			return apperr.Validation("duplicate option %q", o)
		}
		seen[o] = struct{}{}
	}
	return nil
}

func validateTimes(e models.Election) error {
	if e.Opens < e.Created {
		return apperr.Validation("`opens` must not be before the election was created")
	}
	if e.Closes < e.Opens {
		return apperr.Validation("`closes` must not be before `opens`")
	}
	return nil
}

// validateRankings checks a full replacement set of rankings against the
// election's options.
func validateRankings(votes []models.VoterRanking, options []string, max int) error {
	if votes == nil {
		return apperr.Validation("request body must be an array of rankings")
	}
	if len(votes) > max {
		return apperr.Validation("too many rankings (maximum is %d)", max)
	}

	valid := make(map[string]struct{}, len(options))
	for _, o := range options {
		valid[o] = struct{}{}
	}

	voters := make(map[string]struct{}, len(votes))
	for _, v := range votes {
		if v.VoterID == "" {
			return apperr.Validation("`voter_id` must be a non-empty string")
		}
		if _, dup := voters[v.VoterID]; dup {
			return apperr.Validation("duplicate voter_id %q", v.VoterID)
		}
		voters[v.VoterID] = struct{}{}

		if v.Ranking == nil {
			return apperr.Validation("`ranking` for voter %q must be an array", v.VoterID)
		}
		ranked := make(map[string]struct{}, len(v.Ranking))
		for _, choice := range v.Ranking {
			if _, ok := valid[choice]; !ok {
				return apperr.Validation("ranking for voter %q contains unknown option %q", v.VoterID, choice)
			}
			if _, dup := ranked[choice]; dup {
				return apperr.Validation("ranking for voter %q repeats option %q", v.VoterID, choice)
			}
			ranked[choice] = struct{}{}
		}
	}
	return nil
}
