// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/ranked-elections/models"
)

// RedisView keeps the limited view in two Redis hashes, one keyed by IP and
// one by API key, each mapping subject to until (ms).
type RedisView struct {
	client *redis.Client
	prefix string
}

type RedisOption func(*RedisView)

// WithKeyPrefix namespaces the hashes, e.g. per deployment or per test.
func WithKeyPrefix(prefix string) RedisOption {
	return func(v *RedisView) {
		v.prefix = prefix
	}
}

func NewRedisView(client *redis.Client, opts ...RedisOption) *RedisView {
	v := &RedisView{client: client, prefix: "limited"}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *RedisView) ipHash() string  { return v.prefix + ":ip" }
func (v *RedisView) keyHash() string { return v.prefix + ":key" }

// ActiveLimit returns the later of the ip and key rows if it is still active.
func (v *RedisView) ActiveLimit(ctx context.Context, ip, key string, now int64) (*models.LimitedEntry, error) {
	var best *models.LimitedEntry

	lookups := []struct {
		hash    string
		subject string
		isIP    bool
	}{
		{v.ipHash(), ip, true},
		{v.keyHash(), key, false},
	}
	for _, l := range lookups {
		if l.subject == "" {
			continue
		}
		until, err := v.client.HGet(ctx, l.hash, l.subject).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", l.hash, err)
		}
		if until <= now || (best != nil && best.Until >= until) {
			continue
		}
		subject := l.subject
		best = &models.LimitedEntry{Until: until}
		if l.isIP {
			best.IP = &subject
		} else {
			best.Key = &subject
		}
	}
	return best, nil
}

// LimitedSince returns every row with until after cutoff. A row stored with
// both ip and key comes back as two rows.
func (v *RedisView) LimitedSince(ctx context.Context, cutoff int64) ([]models.LimitedEntry, error) {
	entries := []models.LimitedEntry{}
	for _, hash := range []string{v.ipHash(), v.keyHash()} {
		fields, err := v.client.HGetAll(ctx, hash).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", hash, err)
		}
		for subject, raw := range fields {
			until, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("corrupt until for %s in %s: %w", subject, hash, err)
			}
			if until <= cutoff {
				continue
			}
			s := subject
			e := models.LimitedEntry{Until: until}
			if hash == v.ipHash() {
				e.IP = &s
			} else {
				e.Key = &s
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ReplaceLimited builds the new hashes under temporary names and renames
// them over the live ones inside one MULTI/EXEC. Duplicate subjects keep the
// largest until.
func (v *RedisView) ReplaceLimited(ctx context.Context, entries []models.LimitedEntry) error {
	byIP := map[string]int64{}
	byKey := map[string]int64{}
	for _, e := range entries {
		if e.IP != nil && *e.IP != "" && e.Until > byIP[*e.IP] {
			byIP[*e.IP] = e.Until
		}
		if e.Key != nil && *e.Key != "" && e.Until > byKey[*e.Key] {
			byKey[*e.Key] = e.Until
		}
	}

	_, err := v.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		stage(ctx, pipe, v.ipHash(), byIP)
		stage(ctx, pipe, v.keyHash(), byKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace limited view: %w", err)
	}
	return nil
}

func stage(ctx context.Context, pipe redis.Pipeliner, live string, rows map[string]int64) {
	if len(rows) == 0 {
		pipe.Del(ctx, live)
		return
	}
	tmp := live + ":next"
	values := make([]any, 0, 2*len(rows))
	for subject, until := range rows {
		values = append(values, subject, until)
	}
	pipe.Del(ctx, tmp)
	pipe.HSet(ctx, tmp, values...)
	pipe.Rename(ctx, tmp, live)
}
