// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth handles API keys and resource identifiers.

# API Keys

Clients authenticate with a UUID in the "key" header. Keys are issued by
operators (see electionsctl keys create) and stored alongside an owner
label:

	key, err := auth.NewAPIKey()

A request is authenticated when its key is well formed, is not the
all-zero NullKey, and is registered:

	ok, key, err := auth.Authentic(ctx, store, r.Header.Get(auth.HeaderName))

Authentic only returns an error when the lookup itself fails.

# Identifiers

Election ids are UUIDs too. ParseElectionID rejects anything else with an
IdTypeError so that handlers never hit storage with garbage.
*/
package auth
