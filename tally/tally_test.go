// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"
	"strings"
	"testing"

	"github.com/danielhkuo/guild-elections/models"
)

func nominees(ids ...string) []models.Nomination {
	out := make([]models.Nomination, len(ids))
	for i, id := range ids {
		out[i] = models.Nomination{CandidateID: id, DisplayName: strings.ToUpper(id), Order: i + 1}
	}
	return out
}

func ballotsFor(votes map[string]int) []models.Ballot {
	var out []models.Ballot
	n := 0
	for candidate, count := range votes {
		for i := 0; i < count; i++ {
			out = append(out, models.Ballot{VoterHash: fmt.Sprintf("voter-%d", n), CandidateID: candidate})
			n++
		}
	}
	return out
}

func TestCount(t *testing.T) {
	tests := []struct {
		name        string
		nominees    []string
		votes       map[string]int
		wantOutcome string
		wantWinner  string
		wantTied    []string
		wantTotal   int
	}{
		{
			name:        "clear winner",
			nominees:    []string{"a", "b", "c"},
			votes:       map[string]int{"a": 1, "b": 4, "c": 2},
			wantOutcome: models.OutcomeWinner,
			wantWinner:  "b",
			wantTotal:   7,
		},
		{
			name:        "two way tie excludes trailing candidate",
			nominees:    []string{"a", "b", "c"},
			votes:       map[string]int{"a": 3, "b": 3, "c": 1},
			wantOutcome: models.OutcomeTie,
			wantTied:    []string{"a", "b"},
			wantTotal:   7,
		},
		{
			name:        "tie listed in nomination order",
			nominees:    []string{"c", "a", "b"},
			votes:       map[string]int{"a": 2, "b": 2, "c": 2},
			wantOutcome: models.OutcomeTie,
			wantTied:    []string{"c", "a", "b"},
			wantTotal:   6,
		},
		{
			name:        "zero ballots",
			nominees:    []string{"a", "b"},
			votes:       nil,
			wantOutcome: models.OutcomeNoVotes,
			wantTotal:   0,
		},
		{
			name:        "zero nominees and zero ballots",
			nominees:    nil,
			votes:       nil,
			wantOutcome: models.OutcomeNoVotes,
			wantTotal:   0,
		},
		{
			name:        "single vote",
			nominees:    []string{"a", "b"},
			votes:       map[string]int{"b": 1},
			wantOutcome: models.OutcomeWinner,
			wantWinner:  "b",
			wantTotal:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(nominees(tt.nominees...), ballotsFor(tt.votes))

			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.wantOutcome)
			}
			if got.TotalVotes != tt.wantTotal {
				t.Errorf("TotalVotes = %d, want %d", got.TotalVotes, tt.wantTotal)
			}

			if tt.wantWinner == "" {
				if got.Winner != nil {
					t.Errorf("Expected no winner, got %s", got.Winner.CandidateID)
				}
			} else if got.Winner == nil || got.Winner.CandidateID != tt.wantWinner {
				t.Errorf("Winner = %+v, want %s", got.Winner, tt.wantWinner)
			}

			if len(got.Tied) != len(tt.wantTied) {
				t.Fatalf("Tied = %+v, want %v", got.Tied, tt.wantTied)
			}
			for i, id := range tt.wantTied {
				if got.Tied[i].CandidateID != id {
					t.Errorf("Tied[%d] = %s, want %s", i, got.Tied[i].CandidateID, id)
				}
			}

			if len(got.Standings) != len(tt.nominees) {
				t.Errorf("Standings has %d entries, want %d", len(got.Standings), len(tt.nominees))
			}
		})
	}
}

func TestCount_StandingsRanks(t *testing.T) {
	got := Count(nominees("a", "b", "c", "d"), ballotsFor(map[string]int{"a": 3, "b": 3, "c": 1}))

	want := []struct {
		id    string
		votes int
		rank  int
	}{
		{"a", 3, 1},
		{"b", 3, 1},
		{"c", 1, 3},
		{"d", 0, 4},
	}

	for i, w := range want {
		s := got.Standings[i]
		if s.CandidateID != w.id || s.Votes != w.votes || s.Rank != w.rank {
			t.Errorf("Standings[%d] = %s/%d/#%d, want %s/%d/#%d",
				i, s.CandidateID, s.Votes, s.Rank, w.id, w.votes, w.rank)
		}
	}
}

func TestCount_StrayBallotsCounted(t *testing.T) {
	got := Count(nominees("a"), ballotsFor(map[string]int{"a": 1, "ghost": 2}))

	if got.TotalVotes != 3 {
		t.Errorf("TotalVotes = %d, want 3", got.TotalVotes)
	}
	if got.Winner == nil || got.Winner.CandidateID != "ghost" {
		t.Errorf("Expected stray candidate to be counted, got %+v", got.Winner)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]int
		want  []string
		never []string
	}{
		{
			name:  "winner",
			votes: map[string]int{"a": 1, "b": 4},
			want:  []string{"B won King with 4 of 5 votes.", "1st B: 4 votes", "2nd A: 1 vote"},
		},
		{
			name:  "tie",
			votes: map[string]int{"a": 3, "b": 3, "c": 1},
			want:  []string{"tie between A and B at 3 votes each", "Total ballots: 7"},
			never: []string{"won"},
		},
		{
			name:  "no votes",
			votes: nil,
			want:  []string{"No votes cast for King."},
			never: []string{"won", "tie"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Count(nominees("a", "b", "c"), ballotsFor(tt.votes))
			summary := Summary(models.Result{
				Position:   "King",
				Outcome:    tl.Outcome,
				Winner:     tl.Winner,
				Tied:       tl.Tied,
				Standings:  tl.Standings,
				TotalVotes: tl.TotalVotes,
				ClosedBy:   "admin-1",
			})

			for _, s := range tt.want {
				if !strings.Contains(summary, s) {
					t.Errorf("Summary missing %q:\n%s", s, summary)
				}
			}
			for _, s := range tt.never {
				if strings.Contains(summary, s) {
					t.Errorf("Summary unexpectedly contains %q:\n%s", s, summary)
				}
			}
			if !strings.Contains(summary, "Closed by admin-1") {
				t.Errorf("Summary missing closer:\n%s", summary)
			}
		})
	}
}
