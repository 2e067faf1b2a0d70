// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// All timestamps are milliseconds since the Unix epoch.

// Request types

// NewElection is the body of POST /v1/elections. Pointer fields distinguish
// "absent" from "zero"; unknown keys are rejected before decoding.
type NewElection struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Options     *[]string `json:"options"`
	Opens       *int64    `json:"opens"`
	Closes      *int64    `json:"closes"`
}

// PatchElection is the body of PUT /v1/election/{id}.
type PatchElection struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Options     *[]string `json:"options"`
	Opens       *int64    `json:"opens"`
	Closes      *int64    `json:"closes"`
	Deleted     *bool     `json:"deleted"`
}

// Empty reports whether the patch changes nothing.
func (p PatchElection) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Options == nil &&
		p.Opens == nil && p.Closes == nil && p.Deleted == nil
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
}

type ElectionsResponse struct {
	Elections []PublicElection `json:"elections"`
}

type VotesResponse struct {
	Votes []VoterRanking `json:"votes"`
}

// Domain types

// Election is the stored form of an election.
type Election struct {
	ID          string   `json:"election_id"`
	Owner       string   `json:"-"` // Never expose in JSON
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
	Created     int64    `json:"created"`
	Opens       int64    `json:"opens"`
	Closes      int64    `json:"closes"`
	Deleted     bool     `json:"deleted"`
}

// PublicElection is an election as seen by a particular API key.
type PublicElection struct {
	ElectionID  string   `json:"election_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
	Created     int64    `json:"created"`
	Opens       int64    `json:"opens"`
	Closes      int64    `json:"closes"`
	Deleted     bool     `json:"deleted"`
	Owned       bool     `json:"owned"`
}

// Public projects e for the caller holding key.
func (e Election) Public(key string) PublicElection {
	options := e.Options
	if options == nil {
		options = []string{}
	}
	return PublicElection{
		ElectionID:  e.ID,
		Title:       e.Title,
		Description: e.Description,
		Options:     options,
		Created:     e.Created,
		Opens:       e.Opens,
		Closes:      e.Closes,
		Deleted:     e.Deleted,
		Owned:       key != "" && e.Owner == key,
	}
}

// VoterRanking is one voter's ordered preference list. Rankings are stored
// verbatim and never tallied.
type VoterRanking struct {
	VoterID string   `json:"voter_id"`
	Ranking []string `json:"ranking"`
}

type APIKey struct {
	Key   string `json:"key" yaml:"key"`
	Owner string `json:"owner" yaml:"owner"`
}

type Metadata struct {
	UpcomingElections int `json:"upcomingElections"`
	OpenElections     int `json:"openElections"`
	ClosedElections   int `json:"closedElections"`
}

// Admission types

// RequestLogEntry records one completed response. IP and Key are nil when
// the request carried none.
type RequestLogEntry struct {
	IP     *string
	Key    *string
	Route  string
	Method string
	Status int
	Time   int64
}

// LimitedEntry is a row of the materialized "limited until" view. Exactly
// one of IP and Key is set for rows produced by the abuse aggregator.
type LimitedEntry struct {
	IP    *string `json:"ip,omitempty"`
	Key   *string `json:"key,omitempty"`
	Until int64   `json:"until"`
}

// Active reports whether the limitation still applies at now.
func (e LimitedEntry) Active(now int64) bool {
	return e.Until > now
}

// Offender is one (subject, bucket) pair whose request count reached the
// abuse threshold. Subject is either an IP or a key.
type Offender struct {
	Subject     string
	BucketStart int64
	Count       int
}

// RateLimitDecision is computed per request and never persisted.
type RateLimitDecision struct {
	Limited      bool  `json:"limited"`
	RetryAfterMs int64 `json:"retryAfter"`
}

// Response envelopes

type ErrorResponse struct {
	Error string `json:"error"`
}

type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
}

type ContrivedResponse struct {
	Error     string `json:"error"`
	Contrived bool   `json:"contrived"`
}
