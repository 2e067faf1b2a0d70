// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - NewElection: title, description, options, opens, closes
  - PatchElection: any subset of the above plus deleted
  - VoterRanking: voter_id, ranking (PUT /voters takes a list of these)

# Response Types

  - CreateElectionResponse: election_id
  - ElectionsResponse: elections
  - VotesResponse: votes
  - ErrorResponse, RateLimitedResponse, ContrivedResponse

Success responses are merged with {"success": true} by the dispatcher.

# Domain Types

  - Election: stored election, including its owner key
  - PublicElection: election as seen by one key (owned flag, no owner)
  - APIKey: key and owner
  - Metadata: upcoming/open/closed election counts

# Admission Types

  - RequestLogEntry: one per completed response
  - LimitedEntry: row of the materialized rate-limit view
  - Offender: (subject, bucket) pair over the abuse threshold
  - RateLimitDecision: per-request verdict

All timestamps are int64 milliseconds since the Unix epoch.
*/
package models
