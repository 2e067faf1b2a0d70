// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/auth"
	"github.com/danielhkuo/ranked-elections/models"
	"github.com/danielhkuo/ranked-elections/store"
)

// Seed is the document read by hydrate.
type Seed struct {
	Keys      []models.APIKey `yaml:"keys"`
	Elections []SeedElection  `yaml:"elections"`
}

type SeedElection struct {
	ID          string        `yaml:"id"`
	Owner       string        `yaml:"owner"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Options     []string      `yaml:"options"`
	Created     int64         `yaml:"created"`
	Opens       int64         `yaml:"opens"`
	Closes      int64         `yaml:"closes"`
	Deleted     bool          `yaml:"deleted"`
	Rankings    []SeedRanking `yaml:"rankings"`
}

type SeedRanking struct {
	VoterID string   `yaml:"voter_id"`
	Ranking []string `yaml:"ranking"`
}

// HydrateResult counts what a hydrate wrote.
type HydrateResult struct {
	Keys      int
	Elections int
	Rankings  int
}

// ParseSeed decodes a seed document, rejecting unknown fields.
func ParseSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return Seed{}, fmt.Errorf("invalid seed file: %w", err)
	}
	return seed, nil
}

// Hydrate writes seed into st. Keys and elections that already exist are
// overwritten, and each election's rankings are replaced, so running the
// same seed twice is harmless.
func Hydrate(ctx context.Context, st *store.Store, seed Seed, now time.Time) (HydrateResult, error) {
	var res HydrateResult

	for _, k := range seed.Keys {
		key, err := auth.ParseAPIKey(k.Key)
		if err != nil {
			return res, fmt.Errorf("seed key %q: %w", k.Key, err)
		}
		if auth.IsNullKey(key) {
			return res, fmt.Errorf("seed key %q: the null key cannot be registered", k.Key)
		}
		if err := st.CreateKey(ctx, models.APIKey{Key: key, Owner: k.Owner}); err != nil {
			return res, err
		}
		res.Keys++
	}

	for i, se := range seed.Elections {
		e, err := se.election(now)
		if err != nil {
			return res, fmt.Errorf("seed election %d: %w", i, err)
		}

		_, err = st.GetElection(ctx, e.ID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			err = st.CreateElection(ctx, e)
		case err == nil:
			err = st.UpdateElection(ctx, e)
		}
		if err != nil {
			return res, fmt.Errorf("seed election %s: %w", e.ID, err)
		}
		res.Elections++

		votes := make([]models.VoterRanking, 0, len(se.Rankings))
		for _, r := range se.Rankings {
			ranking := r.Ranking
			if ranking == nil {
				ranking = []string{}
			}
			votes = append(votes, models.VoterRanking{VoterID: r.VoterID, Ranking: ranking})
		}
		if err := st.ReplaceRankings(ctx, e.ID, votes); err != nil {
			return res, fmt.Errorf("seed rankings for %s: %w", e.ID, err)
		}
		res.Rankings += len(votes)
	}

	return res, nil
}

func (se SeedElection) election(now time.Time) (models.Election, error) {
	owner, err := auth.ParseAPIKey(se.Owner)
	if err != nil {
		return models.Election{}, err
	}

	id := se.ID
	if id == "" {
		id = auth.NewElectionID()
	} else if id, err = auth.ParseElectionID(id); err != nil {
		return models.Election{}, err
	}

	created := se.Created
	if created == 0 {
		created = now.UnixMilli()
	}
	if se.Title == "" {
		return models.Election{}, apperr.Validation("`title` must be a non-empty string")
	}
	if se.Opens < created || se.Closes < se.Opens {
		return models.Election{}, apperr.Validation("times must satisfy created <= opens <= closes")
	}

	options := se.Options
	if options == nil {
		options = []string{}
	}
	return models.Election{
		ID:          id,
		Owner:       owner,
		Title:       se.Title,
		Description: se.Description,
		Options:     options,
		Created:     created,
		Opens:       se.Opens,
		Closes:      se.Closes,
		Deleted:     se.Deleted,
	}, nil
}
