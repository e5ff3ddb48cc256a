// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes single-choice plurality results.

# Algorithm

Count groups ballots by chosen candidate and counts them:

 1. Every nominee gets an entry, zero votes included
 2. Entries sort by votes (descending), then nomination order
 3. Tied vote counts share a rank (1, 1, 3, ...)
 4. Outcome is decided from the top of the standings

# Outcomes

  - winner: exactly one candidate holds the strictly highest count
  - tie: several candidates share the highest count; all are named,
    in nomination order, and none is picked
  - no_votes: zero ballots; never a winner

Nomination order only orders the display. It never breaks a tie.

# Summary

Summary renders the result as plain text for private delivery to the
closing admin, using go-humanize for ordinals, counts, and name lists:

	B won King with 4 of 5 votes.
	1st B: 4 votes
	2nd A: 1 vote
	Total ballots: 5. Closed by admin-1.

The package is pure: no I/O, no clock, no logging.
*/
package tally
