// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election implements the election engine: lifecycle state machine,
nomination registry, ballot ledger, and closing tally.

# Engine

Engine is the one facade the transport talks to. It keeps no election state
between calls; every operation re-reads and writes through the store.

	engine := election.NewEngine(store.New(conn, db.TypeSQLite), election.Config{
		EarlyVoting:  true,
		StoreTimeout: 5 * time.Second,
		BallotSalt:   cfg.BallotSalt,
	}, election.WithLogger(logger), election.WithRecorder(m))

# Operations

  - Open (admin): create a Nominating election; ClearExisting deletes the
    current one with its nominations and ballots first
  - Nominate: add a candidate while Nominating; returns the nominee list
  - StartVoting (admin): Nominating → Voting
  - CastVote (voter): upsert the voter's ballot; acknowledgement only
  - Close (admin): Closed, tally, and store the result in one transaction
  - Results (admin): re-read the stored result of the last closed election
  - Nominees, ListNominating: read-only views without vote data
  - PromoteDue: start voting for elections whose scheduled start has passed

# Lifecycle

	(none) ──Open──▶ Nominating ──StartVoting / schedule──▶ Voting
	                     │                                     │
	                     └────────────────Close────────────────┴──▶ Closed

With EarlyVoting, ballots are accepted during Nominating as well, so an
election can go straight from Nominating to Closed. Without it, CastVote
returns ErrVotingNotOpen until voting starts. Closed rows stay as history;
only Open with ClearExisting deletes an election.

# Capabilities

Authorization is a per-call argument. The transport resolves it from the
guild's settings for each interaction and passes it in:

	type Capabilities interface {
		IsAdmin(identity, guildID string) bool
		IsVoter(identity, guildID string) bool
	}

A nil Capabilities denies everything.

# Concurrency

Mutating operations hold a per-(guild, position) lock and run in a single
transaction. The lock wait and the transaction share Config.StoreTimeout.
Two votes from the same voter end as one ballot with whichever committed
last. A vote or nomination that waits behind Close sees the Closed status and
fails with ErrNoActiveElection.

# Errors

Every failure is one of the sentinel errors and can be tested with errors.Is.
Driver failures and timeouts are wrapped so both the sentinel and the cause
match:

	if election.Retriable(err) { // only ErrStoreUnavailable
		// retry the whole operation
	}

Code maps an error to a stable string used in HTTP bodies and metrics.

# Privacy

Ballots store a salted voter hash, never the raw identity. No operation
returns an individual ballot, and votes are not logged. The Close result is
returned to the caller for private delivery to the closing admin.
*/
package election
