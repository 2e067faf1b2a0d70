// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the business handlers of the ranked elections API.

# Handler Types

Each handler is a struct holding the store and config:

  - ElectionHandler: list, create, read, patch and soft delete elections
  - VotersHandler: read and replace an election's rankings
  - MetaHandler: election counts by phase

Handlers are created via constructor functions:

	electionHandler := handlers.NewElectionHandler(st, cfg)

Handler methods have the endpoint.HandlerFunc signature. They run after the
dispatcher has authenticated the caller, so endpoint.Key(r.Context()) is
always a registered key. A handler either calls w.Send or returns an error
from the apperr taxonomy; returning nil without sending yields 501.

# Ownership

The key that creates an election owns it. Only the owner may patch it,
delete it, or replace its rankings; anyone else gets 403. Deletion is soft:
a deleted election is still listed and readable by every key, with
"deleted": true, and its owner can restore it.

# Validation

  - title is non-empty; created <= opens <= closes
  - options are distinct non-empty strings, at most MAX_OPTIONS_PER_ELECTION
  - a PUT patch is non-empty and contains no nulls
  - rankings name distinct voters and rank each option at most once, using
    only the election's options; at most MAX_RANKINGS_PER_ELECTION of them

Rankings are stored as given and never tallied.
*/
package handlers
