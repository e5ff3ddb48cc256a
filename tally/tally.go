// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/guild-elections/models"
)

// Tally is the aggregate of all ballots for one election
type Tally struct {
	Outcome    string
	Winner     *models.CandidateResult
	Tied       []models.CandidateResult
	Standings  []models.CandidateResult
	TotalVotes int
}

// Count groups ballots by candidate and decides the plurality outcome.
// Every nominee appears in the standings, including those with zero votes.
func Count(nominations []models.Nomination, ballots []models.Ballot) Tally {
	counts := make(map[string]int, len(nominations))
	for _, b := range ballots {
		counts[b.CandidateID]++
	}

	type entry struct {
		result models.CandidateResult
		order  int
	}

	entries := make([]entry, 0, len(nominations))
	known := make(map[string]bool, len(nominations))
	for i, n := range nominations {
		known[n.CandidateID] = true
		entries = append(entries, entry{
			result: models.CandidateResult{
				CandidateID: n.CandidateID,
				DisplayName: n.DisplayName,
				Votes:       counts[n.CandidateID],
			},
			order: i,
		})
	}

	// Ballots for a candidate missing from the registry are still counted
	var strays []string
	for candidateID := range counts {
		if !known[candidateID] {
			strays = append(strays, candidateID)
		}
	}
	sort.Strings(strays)
	for _, candidateID := range strays {
		entries = append(entries, entry{
			result: models.CandidateResult{
				CandidateID: candidateID,
				DisplayName: candidateID,
				Votes:       counts[candidateID],
			},
			order: len(entries),
		})
	}

	// Sort by votes (descending), then nomination order
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].result.Votes != entries[j].result.Votes {
			return entries[i].result.Votes > entries[j].result.Votes
		}
		return entries[i].order < entries[j].order
	})

	t := Tally{
		Standings:  make([]models.CandidateResult, len(entries)),
		TotalVotes: len(ballots),
	}

	// Competition ranking: tied candidates share a rank
	for i, e := range entries {
		e.result.Rank = i + 1
		if i > 0 && e.result.Votes == t.Standings[i-1].Votes {
			e.result.Rank = t.Standings[i-1].Rank
		}
		t.Standings[i] = e.result
	}

	if t.TotalVotes == 0 {
		t.Outcome = models.OutcomeNoVotes
		return t
	}

	top := t.Standings[0].Votes
	var leaders []models.CandidateResult
	for _, r := range t.Standings {
		if r.Votes != top {
			break
		}
		leaders = append(leaders, r)
	}

	// Tied candidates keep nomination order, which the stable sort preserved
	if len(leaders) > 1 {
		t.Outcome = models.OutcomeTie
		t.Tied = leaders
		return t
	}

	winner := leaders[0]
	t.Outcome = models.OutcomeWinner
	t.Winner = &winner
	return t
}

// Summary renders the private result message for the closing admin
func Summary(r models.Result) string {
	var b strings.Builder

	switch r.Outcome {
	case models.OutcomeNoVotes:
		fmt.Fprintf(&b, "No votes cast for %s.", r.Position)
	case models.OutcomeTie:
		names := make([]string, len(r.Tied))
		for i, c := range r.Tied {
			names[i] = c.DisplayName
		}
		fmt.Fprintf(&b, "%s ended in a tie between %s at %s each.",
			r.Position, english.WordSeries(names, "and"), english.Plural(r.Tied[0].Votes, "vote", ""))
	case models.OutcomeWinner:
		fmt.Fprintf(&b, "%s won %s with %s of %s.",
			r.Winner.DisplayName, r.Position,
			humanize.Comma(int64(r.Winner.Votes)), english.Plural(r.TotalVotes, "vote", ""))
	}

	for _, c := range r.Standings {
		fmt.Fprintf(&b, "\n%s %s: %s", humanize.Ordinal(c.Rank), c.DisplayName, english.Plural(c.Votes, "vote", ""))
	}

	fmt.Fprintf(&b, "\nTotal ballots: %s. Closed by %s.", humanize.Comma(int64(r.TotalVotes)), r.ClosedBy)
	return b.String()
}
