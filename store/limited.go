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

// LimitedSince returns view rows whose until is after cutoff.
func (s *Store) LimitedSince(ctx context.Context, cutoff int64) ([]models.LimitedEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ip, api_key, until_ms FROM limited_log_mview
		WHERE until_ms > $1
		ORDER BY until_ms DESC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to read limited view: %w", err)
	}
	defer rows.Close()

	entries := []models.LimitedEntry{}
	for rows.Next() {
		var e models.LimitedEntry
		var ip, key sql.NullString
		if err := rows.Scan(&ip, &key, &e.Until); err != nil {
			return nil, fmt.Errorf("failed to scan limited entry: %w", err)
		}
		e.IP, e.Key = stringPtr(ip), stringPtr(key)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceLimited overwrites the whole view with entries. Readers see either
// the old view or the new one, never a mix.
func (s *Store) ReplaceLimited(ctx context.Context, entries []models.LimitedEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM limited_log_mview`); err != nil {
		return fmt.Errorf("failed to clear limited view: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO limited_log_mview (ip, api_key, until_ms)
			VALUES ($1, $2, $3)
		`, nullString(e.IP), nullString(e.Key), e.Until); err != nil {
			return fmt.Errorf("failed to insert limited entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit limited view: %w", err)
	}
	return nil
}

// ActiveLimit returns the longest-running limitation matching ip or key at
// now, or nil when neither is limited. Empty arguments never match.
func (s *Store) ActiveLimit(ctx context.Context, ip, key string, now int64) (*models.LimitedEntry, error) {
	var e models.LimitedEntry
	var rowIP, rowKey sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT ip, api_key, until_ms FROM limited_log_mview
		WHERE (ip = $1 OR api_key = $2) AND until_ms > $3
		ORDER BY until_ms DESC
		LIMIT 1
	`, nullString(&ip), nullString(&key), now).Scan(&rowIP, &rowKey, &e.Until)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up limited view: %w", err)
	}
	e.IP, e.Key = stringPtr(rowIP), stringPtr(rowKey)
	return &e, nil
}
