// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/ranked-elections/apperr"
)

// HeaderName is the request header that carries the API key.
const HeaderName = "key"

// NullKey is the all-zero key. It is well formed but never authentic.
var NullKey = uuid.Nil.String()

// KeyLookup reports whether a key is registered.
type KeyLookup interface {
	KeyExists(ctx context.Context, key string) (bool, error)
}

// NewAPIKey generates a fresh random key.
func NewAPIKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return id.String(), nil
}

// ParseAPIKey normalises raw into canonical form. Anything that is not a
// UUID fails with an ApiKeyTypeError.
func ParseAPIKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.ApiKeyType()
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.ApiKeyType()
	}
	return id.String(), nil
}

// IsNullKey reports whether key is the reserved all-zero key.
func IsNullKey(key string) bool {
	return key == NullKey
}

// Authentic reports whether raw is a well formed, non-null, registered key.
// Storage failures are returned; a bad key is simply false.
func Authentic(ctx context.Context, keys KeyLookup, raw string) (bool, string, error) {
	key, err := ParseAPIKey(raw)
	if err != nil || IsNullKey(key) {
		return false, "", nil
	}
	ok, err := keys.KeyExists(ctx, key)
	if err != nil {
		return false, key, err
	}
	return ok, key, nil
}

// ParseElectionID validates an election id from a path or query string.
func ParseElectionID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.IdType(raw)
	}
	return id.String(), nil
}

// NewElectionID generates an id for a newly created election.
func NewElectionID() string {
	return uuid.NewString()
}
