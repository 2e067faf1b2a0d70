// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ranked-elections/models"
)

func setupRedisView(t *testing.T) (*RedisView, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisView(client, WithKeyPrefix("test-limited")), mr
}

func TestRedisView_ReplaceAndLookup(t *testing.T) {
	view, mr := setupRedisView(t)
	ctx := context.Background()
	now := int64(1_700_000_000_000)

	require.NoError(t, view.ReplaceLimited(ctx, []models.LimitedEntry{
		{IP: str("1.2.3.4"), Until: now + 10_000},
		{IP: str("1.2.3.4"), Until: now + 20_000},
		{Key: str("key-a"), Until: now + 5_000},
	}))
	require.True(t, mr.Exists("test-limited:ip"))
	require.False(t, mr.Exists("test-limited:ip:next"))

	e, err := view.ActiveLimit(ctx, "1.2.3.4", "", now)
	require.NoError(t, err)
	require.Equal(t, now+20_000, e.Until)

	e, err = view.ActiveLimit(ctx, "1.2.3.4", "key-a", now)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", *e.IP)

	e, err = view.ActiveLimit(ctx, "", "key-a", now+5_000)
	require.NoError(t, err)
	require.Nil(t, e)

	e, err = view.ActiveLimit(ctx, "", "", now)
	require.NoError(t, err)
	require.Nil(t, e)
}

func TestRedisView_ReplaceIsFullOverwrite(t *testing.T) {
	view, mr := setupRedisView(t)
	ctx := context.Background()
	now := int64(1_700_000_000_000)

	require.NoError(t, view.ReplaceLimited(ctx, []models.LimitedEntry{
		{IP: str("1.1.1.1"), Until: now + 1000},
		{Key: str("key-a"), Until: now + 1000},
	}))
	require.NoError(t, view.ReplaceLimited(ctx, []models.LimitedEntry{
		{IP: str("2.2.2.2"), Until: now + 1000},
	}))

	rows, err := view.LimitedSince(ctx, now)
	require.NoError(t, err)
	require.Equal(t, []models.LimitedEntry{{IP: str("2.2.2.2"), Until: now + 1000}}, rows)
	require.False(t, mr.Exists("test-limited:key"))
}

func TestRedisView_WithAggregator(t *testing.T) {
	view, _ := setupRedisView(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	logs := staticLogs{byKey: []models.Offender{{Subject: "key-a"}}}
	agg := NewAggregator(logs, view, testPolicy()).WithClock(func() time.Time { return now })

	_, err := agg.Run(ctx)
	require.NoError(t, err)
	_, err = agg.Run(ctx)
	require.NoError(t, err)

	d, err := NewChecker(view).WithClock(func() time.Time { return now }).IsRateLimited(ctx, "", "key-a")
	require.NoError(t, err)
	require.True(t, d.Limited)
	require.Equal(t, time.Hour.Milliseconds(), d.RetryAfterMs)
}

type staticLogs struct {
	byKey, byIP []models.Offender
}

func (s staticLogs) OffendersByKey(context.Context, int64, int64, int) ([]models.Offender, error) {
	return s.byKey, nil
}

func (s staticLogs) OffendersByIP(context.Context, int64, int64, int) ([]models.Offender, error) {
	return s.byIP, nil
}
