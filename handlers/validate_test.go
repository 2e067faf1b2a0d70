// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"testing"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/models"
)

func ptr[T any](v T) *T { return &v }

func TestValidateNewElection_Defaults(t *testing.T) {
	e, err := validateNewElection(models.NewElection{
		Title:  ptr("t"),
		Opens:  ptr(int64(100)),
		Closes: ptr(int64(100)),
	}, 100, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if e.Options == nil || len(e.Options) != 0 {
		t.Errorf("Expected empty options, got %v", e.Options)
	}
	if e.Created != 100 || e.Description != "" {
		t.Errorf("Unexpected election %+v", e)
	}
}

func TestApplyPatch_Empty(t *testing.T) {
	_, err := applyPatch(models.Election{}, models.PatchElection{}, 5)
	if !errors.Is(err, apperr.ErrUpsertFailed) {
		t.Errorf("Expected an upsert failure, got %v", err)
	}
}

func TestValidateRankings(t *testing.T) {
	options := []string{"A", "B"}

	tests := []struct {
		name    string
		votes   []models.VoterRanking
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", []models.VoterRanking{}, false},
		{"partial ranking", []models.VoterRanking{{VoterID: "v", Ranking: []string{"B"}}}, false},
		{"empty ranking", []models.VoterRanking{{VoterID: "v", Ranking: []string{}}}, false},
		{"nil ranking", []models.VoterRanking{{VoterID: "v"}}, true},
		{"unknown option", []models.VoterRanking{{VoterID: "v", Ranking: []string{"C"}}}, true},
		{"too many", []models.VoterRanking{{VoterID: "1", Ranking: []string{}}, {VoterID: "2", Ranking: []string{}}, {VoterID: "3", Ranking: []string{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRankings(tt.votes, options, 2)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRankings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}
