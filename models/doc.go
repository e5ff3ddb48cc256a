// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SetupRequest: channel and role designations for a guild
  - OpenElectionRequest: clear_existing, voting_starts_at
  - NominateRequest: display_name
  - CastVoteRequest: candidate_id

# Response Types

Types for JSON responses:

  - OpenElectionResponse: election descriptor, nominees, render hints
  - NomineesResponse: nominee list in nomination order
  - StartVotingResponse: election after the Nominating → Voting transition
  - CastVoteResponse: acknowledgement only
  - SettingsStatusResponse: settings plus missing fields
  - ErrorResponse: error, code, message

# Domain Types

  - Election: one (guild, position) election and its lifecycle state
  - Nomination: a candidate standing in an election
  - Ballot: one voter's current choice (never serialized)
  - Result: the private tally package produced on close
  - GuildSettings: per-guild channel and role designations
  - Caller: the member behind one interaction

# Constants

Status values:

	StatusNominating = "nominating"
	StatusVoting     = "voting"
	StatusClosed     = "closed"

Result outcomes:

	OutcomeWinner  = "winner"
	OutcomeTie     = "tie"
	OutcomeNoVotes = "no_votes"
*/
package models
