// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/ranked-elections/models"
)

// InsertRequestLog appends one entry. Entries are never updated.
func (s *Store) InsertRequestLog(ctx context.Context, e models.RequestLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_log (ip, api_key, route, method, status, time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, nullString(e.IP), nullString(e.Key), e.Route, e.Method, e.Status, e.Time)
	if err != nil {
		return fmt.Errorf("failed to insert request log: %w", err)
	}
	return nil
}

// RequestLog returns entries at or after since, oldest first.
func (s *Store) RequestLog(ctx context.Context, since int64) ([]models.RequestLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ip, api_key, route, method, status, time_ms FROM request_log
		WHERE time_ms >= $1
		ORDER BY time_ms
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read request log: %w", err)
	}
	defer rows.Close()

	entries := []models.RequestLogEntry{}
	for rows.Next() {
		var e models.RequestLogEntry
		var ip, key sql.NullString
		if err := rows.Scan(&ip, &key, &e.Route, &e.Method, &e.Status, &e.Time); err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		e.IP, e.Key = stringPtr(ip), stringPtr(key)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Offender queries bucket rows by time_ms - time_ms % bucket and keep the
// (subject, bucket) pairs whose count reaches the threshold.
const (
	offendersByKeyQuery = `
		SELECT subject, bucket, COUNT(*) FROM (
			SELECT api_key AS subject, time_ms - (time_ms % $2) AS bucket
			FROM request_log
			WHERE api_key IS NOT NULL AND time_ms >= $1
		) windowed
		GROUP BY subject, bucket
		HAVING COUNT(*) >= $3
		ORDER BY subject, bucket`

	offendersByIPQuery = `
		SELECT subject, bucket, COUNT(*) FROM (
			SELECT ip AS subject, time_ms - (time_ms % $2) AS bucket
			FROM request_log
			WHERE ip IS NOT NULL AND time_ms >= $1
		) windowed
		GROUP BY subject, bucket
		HAVING COUNT(*) >= $3
		ORDER BY subject, bucket`
)

// OffendersByKey returns keys that sent at least threshold requests inside
// one bucket since the given time. bucket is in milliseconds.
func (s *Store) OffendersByKey(ctx context.Context, since, bucket int64, threshold int) ([]models.Offender, error) {
	return s.offenders(ctx, offendersByKeyQuery, since, bucket, threshold)
}

// OffendersByIP is OffendersByKey keyed on client IP, regardless of key.
func (s *Store) OffendersByIP(ctx context.Context, since, bucket int64, threshold int) ([]models.Offender, error) {
	return s.offenders(ctx, offendersByIPQuery, since, bucket, threshold)
}

func (s *Store) offenders(ctx context.Context, query string, since, bucket int64, threshold int) ([]models.Offender, error) {
	if bucket <= 0 {
		return nil, fmt.Errorf("bucket must be positive, got %d", bucket)
	}

	rows, err := s.db.QueryContext(ctx, query, since, bucket, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate request log: %w", err)
	}
	defer rows.Close()

	offenders := []models.Offender{}
	for rows.Next() {
		var o models.Offender
		if err := rows.Scan(&o.Subject, &o.BucketStart, &o.Count); err != nil {
			return nil, fmt.Errorf("failed to scan offender: %w", err)
		}
		offenders = append(offenders, o)
	}
	return offenders, rows.Err()
}

// PruneRequestLog keeps roughly the newest maxRows entries. Rows sharing
// the cut-off timestamp survive. maxRows <= 0 disables pruning.
func (s *Store) PruneRequestLog(ctx context.Context, maxRows int) (int64, error) {
	if maxRows <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM request_log
		WHERE time_ms < (
			SELECT time_ms FROM request_log
			ORDER BY time_ms DESC
			LIMIT 1 OFFSET $1
		)
	`, maxRows-1)
	if err != nil {
		return 0, fmt.Errorf("failed to prune request log: %w", err)
	}
	return res.RowsAffected()
}
