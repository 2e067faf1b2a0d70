// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/ranked-elections/models"
)

// KeyExists reports whether key is registered.
func (s *Store) KeyExists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM api_key WHERE api_key = $1
	`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up API key: %w", err)
	}
	return true, nil
}

// CreateKey registers a key. Registering an existing key updates its owner.
func (s *Store) CreateKey(ctx context.Context, k models.APIKey) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO api_key (api_key, owner)
		VALUES ($1, $2)
		ON CONFLICT (api_key) DO UPDATE SET owner = excluded.owner
	`, k.Key, k.Owner)
	if err != nil {
		return fmt.Errorf("failed to insert API key: %w", err)
	}
	return expectOneRow(res, "api key")
}

// ListKeys returns every registered key ordered by owner.
func (s *Store) ListKeys(ctx context.Context) ([]models.APIKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT api_key, owner FROM api_key ORDER BY owner, api_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	keys := []models.APIKey{}
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.Key, &k.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
