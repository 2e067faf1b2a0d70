// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/ranked-elections/apperr"
)

type fakeKeys map[string]bool

func (f fakeKeys) KeyExists(_ context.Context, key string) (bool, error) {
	if f == nil {
		return false, errors.New("store down")
	}
	return f[key], nil
}

func TestNewAPIKey(t *testing.T) {
	key1, err := NewAPIKey()
	if err != nil {
		t.Fatalf("NewAPIKey() error = %v", err)
	}
	key2, _ := NewAPIKey()
	if key1 == key2 {
		t.Error("NewAPIKey() produced duplicate keys (extremely unlikely)")
	}

	parsed, err := ParseAPIKey(key1)
	if err != nil {
		t.Fatalf("generated key does not parse: %v", err)
	}
	if parsed != key1 {
		t.Errorf("ParseAPIKey() = %s, want %s", parsed, key1)
	}
}

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"canonical", "d68d8b5e-b926-4925-ac77-1013e56b8c81", "d68d8b5e-b926-4925-ac77-1013e56b8c81", false},
		{"upper case", "D68D8B5E-B926-4925-AC77-1013E56B8C81", "d68d8b5e-b926-4925-ac77-1013e56b8c81", false},
		{"null key parses", NullKey, NullKey, false},
		{"empty", "", "", true},
		{"garbage", "not-a-key", "", true},
		{"too short", "d68d8b5e-b926-4925-ac77", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAPIKey(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrApiKeyType) {
					t.Errorf("ParseAPIKey(%q) error = %v, want ApiKeyTypeError", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIKey(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseAPIKey(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAuthentic(t *testing.T) {
	registered := "a0d5a1c4-8b9f-4b7d-9a9e-0f1c2d3e4f50"
	keys := fakeKeys{registered: true, NullKey: true}
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"registered", registered, true},
		{"unregistered", "b0d5a1c4-8b9f-4b7d-9a9e-0f1c2d3e4f50", false},
		{"null key is never authentic", NullKey, false},
		{"malformed", "abc", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Authentic(ctx, keys, tt.raw)
			if err != nil {
				t.Fatalf("Authentic() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Authentic(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}

	t.Run("lookup failure surfaces", func(t *testing.T) {
		var down fakeKeys
		if _, _, err := Authentic(ctx, down, registered); err == nil {
			t.Error("expected lookup error")
		}
	})
}

func TestParseElectionID(t *testing.T) {
	id := NewElectionID()
	if got, err := ParseElectionID(id); err != nil || got != id {
		t.Errorf("ParseElectionID(%q) = %q, %v", id, got, err)
	}

	for _, raw := range []string{"", "123", "election-1"} {
		if _, err := ParseElectionID(raw); !errors.Is(err, apperr.ErrIdType) {
			t.Errorf("ParseElectionID(%q) error = %v, want IdTypeError", raw, err)
		}
	}
}
