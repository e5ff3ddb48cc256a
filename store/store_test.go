// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/guild-elections/db"
	"github.com/danielhkuo/guild-elections/models"
	"github.com/danielhkuo/guild-elections/testutil"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	return New(testutil.SetupTestDB(t), db.TypeSQLite)
}

func newElection(id, guild, position string, created time.Time) models.Election {
	return models.Election{
		ID:        id,
		GuildID:   guild,
		Position:  position,
		Status:    models.StatusNominating,
		OpenedBy:  "admin-1",
		CreatedAt: created,
	}
}

func createElection(ctx context.Context, tx Tx, e models.Election) error {
	_, err := tx.CreateElection(ctx, e)
	return err
}

// mustTx runs fn and fails the test on error
func mustTx(t *testing.T, s *SQLStore, fn func(Tx) error) {
	t.Helper()
	if err := s.InTx(context.Background(), fn); err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
}

func TestCreateElection_OneActivePerPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mustTx(t, s, func(tx Tx) error {
		return createElection(ctx, tx, newElection("e1", "g1", "King", now))
	})

	err := s.InTx(ctx, func(tx Tx) error {
		return createElection(ctx, tx, newElection("e2", "g1", "King", now))
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate for second active election, got %v", err)
	}

	// Other positions and guilds are independent
	mustTx(t, s, func(tx Tx) error {
		if err := createElection(ctx, tx, newElection("e3", "g1", "Queen", now)); err != nil {
			return err
		}
		return createElection(ctx, tx, newElection("e4", "g2", "King", now))
	})

	// Closing frees the slot
	mustTx(t, s, func(tx Tx) error {
		if err := tx.CloseElection(ctx, "e1", "admin-1", now); err != nil {
			return err
		}
		return createElection(ctx, tx, newElection("e5", "g1", "King", now.Add(time.Second)))
	})

	mustTx(t, s, func(tx Tx) error {
		active, err := tx.ActiveElection(ctx, "g1", "King")
		if err != nil {
			return err
		}
		if active.ID != "e5" {
			t.Errorf("Expected active election e5, got %s", active.ID)
		}

		closed, err := tx.LatestClosedElection(ctx, "g1", "King")
		if err != nil {
			return err
		}
		if closed.ID != "e1" {
			t.Errorf("Expected latest closed election e1, got %s", closed.ID)
		}
		if closed.ClosedBy == nil || *closed.ClosedBy != "admin-1" {
			t.Errorf("Expected closed_by admin-1, got %v", closed.ClosedBy)
		}
		return nil
	})
}

func TestLatestElection_OrdersByGeneration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Same millisecond, and then a clock that stepped backwards. IDs sort
	// opposite to opening order.
	opened := []struct {
		id      string
		created time.Time
	}{
		{"z-first", now},
		{"m-second", now},
		{"a-third", now.Add(-time.Hour)},
	}

	for i, o := range opened {
		mustTx(t, s, func(tx Tx) error {
			created, err := tx.CreateElection(ctx, newElection(o.id, "g1", "King", o.created))
			if err != nil {
				return err
			}
			if created.Generation != i+1 {
				t.Errorf("Expected generation %d for %s, got %d", i+1, o.id, created.Generation)
			}
			return tx.CloseElection(ctx, o.id, "admin-1", o.created)
		})

		mustTx(t, s, func(tx Tx) error {
			latest, err := tx.LatestClosedElection(ctx, "g1", "King")
			if err != nil {
				return err
			}
			if latest.ID != o.id || latest.Generation != i+1 {
				t.Errorf("Expected latest closed %s (generation %d), got %s (generation %d)",
					o.id, i+1, latest.ID, latest.Generation)
			}
			return nil
		})
	}

	// Generations are counted per position
	mustTx(t, s, func(tx Tx) error {
		created, err := tx.CreateElection(ctx, newElection("q1", "g1", "Queen", now))
		if err != nil {
			return err
		}
		if created.Generation != 1 {
			t.Errorf("Expected generation 1 for a new position, got %d", created.Generation)
		}
		return nil
	})
}

func TestActiveElection_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx Tx) error {
		_, err := tx.ActiveElection(ctx, "g1", "King")
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCloseElection_AlreadyClosed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mustTx(t, s, func(tx Tx) error {
		if err := createElection(ctx, tx, newElection("e1", "g1", "King", now)); err != nil {
			return err
		}
		return tx.CloseElection(ctx, "e1", "admin-1", now)
	})

	err := s.InTx(ctx, func(tx Tx) error {
		return tx.CloseElection(ctx, "e1", "admin-2", now)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound closing a closed election, got %v", err)
	}
}

func TestAddNomination_OrderAndDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mustTx(t, s, func(tx Tx) error {
		return createElection(ctx, tx, newElection("e1", "g1", "King", now))
	})

	candidates := []string{"carol", "alice", "bob"}
	for i, c := range candidates {
		mustTx(t, s, func(tx Tx) error {
			n, err := tx.AddNomination(ctx, models.Nomination{
				ElectionID:  "e1",
				CandidateID: c,
				DisplayName: c,
				NominatedAt: now,
			})
			if err != nil {
				return err
			}
			if n.Order != i+1 {
				t.Errorf("Expected order %d for %s, got %d", i+1, c, n.Order)
			}
			return nil
		})
	}

	err := s.InTx(ctx, func(tx Tx) error {
		_, err := tx.AddNomination(ctx, models.Nomination{ElectionID: "e1", CandidateID: "alice", DisplayName: "Alice again", NominatedAt: now})
		return err
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	mustTx(t, s, func(tx Tx) error {
		list, err := tx.Nominations(ctx, "e1")
		if err != nil {
			return err
		}
		if len(list) != len(candidates) {
			t.Fatalf("Expected %d nominations, got %d", len(candidates), len(list))
		}
		for i, n := range list {
			if n.CandidateID != candidates[i] {
				t.Errorf("Position %d: expected %s, got %s", i, candidates[i], n.CandidateID)
			}
		}
		if list[1].DisplayName != "alice" {
			t.Errorf("Duplicate nomination changed display name to %q", list[1].DisplayName)
		}
		return nil
	})
}

func TestUpsertBallot_LastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mustTx(t, s, func(tx Tx) error {
		return createElection(ctx, tx, newElection("e1", "g1", "King", now))
	})

	for i, choice := range []string{"alice", "bob", "carol"} {
		mustTx(t, s, func(tx Tx) error {
			return tx.UpsertBallot(ctx, models.Ballot{
				ElectionID:  "e1",
				VoterHash:   "voter-hash",
				CandidateID: choice,
				UpdatedAt:   now.Add(time.Duration(i) * time.Second),
			})
		})
	}

	mustTx(t, s, func(tx Tx) error {
		ballots, err := tx.Ballots(ctx, "e1")
		if err != nil {
			return err
		}
		if len(ballots) != 1 {
			t.Fatalf("Expected 1 ballot, got %d", len(ballots))
		}
		if ballots[0].CandidateID != "carol" {
			t.Errorf("Expected last choice carol, got %s", ballots[0].CandidateID)
		}
		return nil
	})
}

func TestDeleteElection_PurgesChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mustTx(t, s, func(tx Tx) error {
		if err := createElection(ctx, tx, newElection("e1", "g1", "King", now)); err != nil {
			return err
		}
		if _, err := tx.AddNomination(ctx, models.Nomination{ElectionID: "e1", CandidateID: "alice", DisplayName: "Alice", NominatedAt: now}); err != nil {
			return err
		}
		return tx.UpsertBallot(ctx, models.Ballot{ElectionID: "e1", VoterHash: "v1", CandidateID: "alice", UpdatedAt: now})
	})

	mustTx(t, s, func(tx Tx) error {
		return tx.DeleteElection(ctx, "e1")
	})

	mustTx(t, s, func(tx Tx) error {
		if _, err := tx.ActiveElection(ctx, "g1", "King"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected election to be gone, got %v", err)
		}
		nominations, err := tx.Nominations(ctx, "e1")
		if err != nil {
			return err
		}
		ballots, err := tx.Ballots(ctx, "e1")
		if err != nil {
			return err
		}
		if len(nominations) != 0 || len(ballots) != 0 {
			t.Errorf("Expected no leftovers, got %d nominations and %d ballots", len(nominations), len(ballots))
		}
		return nil
	})
}

func TestSaveResult_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	result := models.Result{
		SnapshotID: "snap-1",
		ElectionID: "e1",
		GuildID:    "g1",
		Position:   "King",
		Outcome:    models.OutcomeWinner,
		Winner:     &models.CandidateResult{CandidateID: "alice", DisplayName: "Alice", Votes: 2, Rank: 1},
		Standings:  []models.CandidateResult{{CandidateID: "alice", DisplayName: "Alice", Votes: 2, Rank: 1}},
		TotalVotes: 2,
		ClosedBy:   "admin-1",
		ClosedAt:   now,
	}

	mustTx(t, s, func(tx Tx) error {
		if err := createElection(ctx, tx, newElection("e1", "g1", "King", now)); err != nil {
			return err
		}
		return tx.SaveResult(ctx, result)
	})

	err := s.InTx(ctx, func(tx Tx) error {
		return tx.SaveResult(ctx, result)
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for second snapshot, got %v", err)
	}

	mustTx(t, s, func(tx Tx) error {
		got, err := tx.Result(ctx, "e1")
		if err != nil {
			return err
		}
		if got.Winner == nil || got.Winner.CandidateID != "alice" {
			t.Errorf("Expected winner alice, got %+v", got.Winner)
		}
		if !got.ClosedAt.Equal(now) {
			t.Errorf("Expected closed_at %v, got %v", now, got.ClosedAt)
		}
		return nil
	})
}

func TestDueForVoting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := newElection("due", "g1", "King", now)
	due.VotingStartsAt = &past
	later := newElection("later", "g1", "Queen", now)
	later.VotingStartsAt = &future
	unscheduled := newElection("manual", "g1", "Jester", now)

	mustTx(t, s, func(tx Tx) error {
		for _, e := range []models.Election{due, later, unscheduled} {
			if err := createElection(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})

	mustTx(t, s, func(tx Tx) error {
		list, err := tx.DueForVoting(ctx, now)
		if err != nil {
			return err
		}
		if len(list) != 1 || list[0].ID != "due" {
			t.Fatalf("Expected only the due election, got %+v", list)
		}

		if err := tx.StartVoting(ctx, "due", now); err != nil {
			return err
		}
		if err := tx.StartVoting(ctx, "due", now); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound starting voting twice, got %v", err)
		}

		list, err = tx.DueForVoting(ctx, now)
		if err != nil {
			return err
		}
		if len(list) != 0 {
			t.Errorf("Expected nothing due after promotion, got %d", len(list))
		}

		nominating, err := tx.ListNominating(ctx, "g1")
		if err != nil {
			return err
		}
		if len(nominating) != 2 {
			t.Errorf("Expected 2 nominating elections, got %d", len(nominating))
		}
		return nil
	})
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx Tx) error {
		if err := createElection(ctx, tx, newElection("e1", "g1", "King", time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected callback error, got %v", err)
	}

	err = s.InTx(ctx, func(tx Tx) error {
		_, err := tx.ActiveElection(ctx, "g1", "King")
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected rolled back insert, got %v", err)
	}
}

func TestInTx_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, func(tx Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("Callback ran with a canceled context")
	}
}
