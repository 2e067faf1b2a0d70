// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/models"
)

const electionColumns = `id, owner, title, description, options, created, opens, closes, deleted`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (models.Election, error) {
	var e models.Election
	var options string
	if err := row.Scan(&e.ID, &e.Owner, &e.Title, &e.Description, &options,
		&e.Created, &e.Opens, &e.Closes, &e.Deleted); err != nil {
		return models.Election{}, err
	}
	if err := json.Unmarshal([]byte(options), &e.Options); err != nil {
		return models.Election{}, fmt.Errorf("corrupt options for election %s: %w", e.ID, err)
	}
	if e.Options == nil {
		e.Options = []string{}
	}
	return e, nil
}

func encodeOptions(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	b, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}
	return string(b), nil
}

// CreateElection inserts e. The caller assigns the id and timestamps.
func (s *Store) CreateElection(ctx context.Context, e models.Election) error {
	options, err := encodeOptions(e.Options)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO election (id, owner, title, description, options, created, opens, closes, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Owner, e.Title, e.Description, options, e.Created, e.Opens, e.Closes, e.Deleted)
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}
	return expectOneRow(res, "election "+e.ID)
}

// GetElection loads one election, deleted or not.
func (s *Store) GetElection(ctx context.Context, id string) (models.Election, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, id)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, apperr.NotFound(id)
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to load election: %w", err)
	}
	return e, nil
}

// UpdateElection overwrites every mutable field of e.
func (s *Store) UpdateElection(ctx context.Context, e models.Election) error {
	options, err := encodeOptions(e.Options)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE election
		SET title = $2, description = $3, options = $4, opens = $5, closes = $6, deleted = $7
		WHERE id = $1
	`, e.ID, e.Title, e.Description, options, e.Opens, e.Closes, e.Deleted)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	return expectOneRow(res, "election "+e.ID)
}

// ListElections pages through elections in creation order, deleted ones
// included. after, when set, is the id of the last election of the previous
// page; an unknown after yields an empty page.
func (s *Store) ListElections(ctx context.Context, after string, limit int) ([]models.Election, error) {
	elections := []models.Election{}
	if limit <= 0 {
		return elections, nil
	}

	var rows *sql.Rows
	var err error
	if after == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+electionColumns+` FROM election
			ORDER BY created, id
			LIMIT $1
		`, limit)
	} else {
		cursor, cerr := s.GetElection(ctx, after)
		if errors.Is(cerr, apperr.ErrNotFound) {
			return elections, nil
		}
		if cerr != nil {
			return nil, cerr
		}
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+electionColumns+` FROM election
			WHERE created > $1 OR (created = $1 AND id > $2)
			ORDER BY created, id
			LIMIT $3
		`, cursor.Created, cursor.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, e)
	}
	return elections, rows.Err()
}

// Metadata counts non-deleted elections by lifecycle phase at now.
func (s *Store) Metadata(ctx context.Context, now int64) (models.Metadata, error) {
	var m models.Metadata
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN opens > $1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN opens <= $1 AND closes > $1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN closes <= $1 THEN 1 ELSE 0 END), 0)
		FROM election
		WHERE deleted = FALSE
	`, now).Scan(&m.UpcomingElections, &m.OpenElections, &m.ClosedElections)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to count elections: %w", err)
	}
	return m, nil
}
