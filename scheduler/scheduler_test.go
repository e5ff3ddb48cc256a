// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/danielhkuo/guild-elections/db"
	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/guildcfg"
	"github.com/danielhkuo/guild-elections/models"
	"github.com/danielhkuo/guild-elections/store"
	"github.com/danielhkuo/guild-elections/testutil"
)

var _ Promoter = (*election.Engine)(nil)

// fakePromoter returns canned results and counts calls
type fakePromoter struct {
	calls    atomic.Int32
	promoted int
	err      error
}

func (f *fakePromoter) PromoteDue(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return f.promoted, f.err
}

type fakeCounter struct {
	total atomic.Int32
}

func (c *fakeCounter) AddScheduledStarts(n int) {
	c.total.Add(int32(n))
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name      string
		promoted  int
		err       error
		wantErr   bool
		wantCount int32
	}{
		{"nothing due", 0, nil, false, 0},
		{"promotes", 2, nil, false, 2},
		{"partial failure still counts", 1, errors.New("store down"), true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePromoter{promoted: tt.promoted, err: tt.err}
			c := &fakeCounter{}
			w := Worker{Elections: p, Counter: c}

			err := w.RunOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("RunOnce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if c.total.Load() != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, c.total.Load())
			}
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &fakePromoter{err: errors.New("keeps failing")}
	w := Worker{Elections: p, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for p.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected at least 3 sweeps, got %d", p.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestRunOnce_PromotesScheduledElection(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	settings := testutil.SeedSettings(t, conn, testutil.TestGuildID)
	scope := guildcfg.NewScope(settings, testutil.Admin("admin-1"))

	now := time.Now()
	engine := election.NewEngine(store.New(conn, db.TypeSQLite), election.Config{
		BallotSalt:   "salt",
		StoreTimeout: time.Second,
	}, election.WithClock(func() time.Time { return now }))

	startsAt := now.Add(-time.Second)
	_, err := engine.Open(context.Background(), scope, testutil.TestGuildID, "King", "admin-1",
		models.OpenElectionRequest{VotingStartsAt: &startsAt})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	c := &fakeCounter{}
	w := Worker{Elections: engine, Counter: c}
	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if c.total.Load() != 1 {
		t.Errorf("Expected 1 promotion, got %d", c.total.Load())
	}

	el, _, err := engine.Nominees(context.Background(), testutil.TestGuildID, "King")
	if err != nil {
		t.Fatalf("Nominees() error = %v", err)
	}
	if el.Status != models.StatusVoting {
		t.Errorf("Expected voting status, got %s", el.Status)
	}
}
