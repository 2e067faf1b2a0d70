// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/ranked-elections/models"
)

// GetRankings returns an election's rankings in submission order.
func (s *Store) GetRankings(ctx context.Context, electionID string) ([]models.VoterRanking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT voter_id, ranking FROM ranking
		WHERE election_id = $1
		ORDER BY position
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}
	defer rows.Close()

	votes := []models.VoterRanking{}
	for rows.Next() {
		var v models.VoterRanking
		var raw string
		if err := rows.Scan(&v.VoterID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &v.Ranking); err != nil {
			return nil, fmt.Errorf("corrupt ranking for voter %s: %w", v.VoterID, err)
		}
		if v.Ranking == nil {
			v.Ranking = []string{}
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// ReplaceRankings swaps an election's rankings for votes in one transaction.
func (s *Store) ReplaceRankings(ctx context.Context, electionID string, votes []models.VoterRanking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ranking WHERE election_id = $1`, electionID); err != nil {
		return fmt.Errorf("failed to clear rankings: %w", err)
	}

	for i, v := range votes {
		ranking := v.Ranking
		if ranking == nil {
			ranking = []string{}
		}
		raw, err := json.Marshal(ranking)
		if err != nil {
			return fmt.Errorf("failed to encode ranking: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ranking (election_id, voter_id, ranking, position)
			VALUES ($1, $2, $3, $4)
		`, electionID, v.VoterID, string(raw), i); err != nil {
			return fmt.Errorf("failed to insert ranking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rankings: %w", err)
	}
	return nil
}
