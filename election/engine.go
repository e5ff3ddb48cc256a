// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/guild-elections/auth"
	"github.com/danielhkuo/guild-elections/models"
	"github.com/danielhkuo/guild-elections/store"
	"github.com/danielhkuo/guild-elections/tally"
)

// Operation names used for logging and metrics
const (
	OpOpen          = "open"
	OpNominate      = "nominate"
	OpStartVoting   = "start_voting"
	OpCastVote      = "cast_vote"
	OpClose         = "close"
	OpResults       = "results"
	OpNominees      = "nominees"
	OpListElections = "list_nominating"
	OpPromote       = "promote"
)

const defaultStoreTimeout = 5 * time.Second

// errStale marks a scheduled election that changed between scan and promotion.
var errStale = errors.New("election changed since scan")

// Capabilities answers authorization questions for one interaction.
type Capabilities interface {
	IsAdmin(identity, guildID string) bool
	IsVoter(identity, guildID string) bool
}

// Recorder receives one observation per engine operation.
type Recorder interface {
	Observe(operation, outcome string, elapsed time.Duration)
}

// Config holds the engine's deployment policy.
type Config struct {
	// EarlyVoting accepts ballots while nominations are still open.
	EarlyVoting bool
	// StoreTimeout bounds the lock wait plus the transaction of each operation.
	StoreTimeout time.Duration
	// BallotSalt keys the voter hash stored on ballots.
	BallotSalt string
}

// Engine is the single entry point for election operations. It holds no
// election state between calls; the store is the source of truth.
type Engine struct {
	store    store.Store
	cfg      Config
	locks    *keyLocks
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithLogger sets the engine logger. Nil falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine over s. A zero StoreTimeout means 5s.
func NewEngine(s store.Store, cfg Config, opts ...Option) *Engine {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	e := &Engine{
		store:  s,
		cfg:    cfg,
		locks:  newKeyLocks(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("module", "election")
	return e
}

func normalize(guildID, position string) (string, string, error) {
	guildID = strings.TrimSpace(guildID)
	position = strings.TrimSpace(position)
	if guildID == "" || position == "" {
		return "", "", fmt.Errorf("%w: guild and position are required", ErrInvalidInput)
	}
	return guildID, position, nil
}

// observe records the outcome of an operation. Call it deferred with a
// pointer to the named error result.
func (e *Engine) observe(op string, start time.Time, errp *error) {
	if e.recorder == nil {
		return
	}
	e.recorder.Observe(op, Code(*errp), e.now().Sub(start))
}

// denied logs a failed capability check. Ballot data is never included.
func (e *Engine) denied(op, guildID, position string) error {
	e.logger.Warn("capability check failed",
		"operation", op,
		"guild_id", guildID,
		"position", position,
	)
	return ErrUnauthorized
}

// serialized runs fn in one transaction while holding the (guild, position)
// key. Lock wait and transaction share the store timeout.
func (e *Engine) serialized(ctx context.Context, guildID, position string, fn func(store.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	release, err := e.locks.acquire(ctx, lockKey(guildID, position))
	if err != nil {
		return classify(fmt.Errorf("wait for election lock: %w", err))
	}
	defer release()

	return classify(e.store.InTx(ctx, fn))
}

// read runs fn in a transaction without taking the key lock.
func (e *Engine) read(ctx context.Context, fn func(store.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	return classify(e.store.InTx(ctx, fn))
}

// activeElection maps a missing row to ErrNoActiveElection.
func activeElection(ctx context.Context, tx store.Tx, guildID, position string) (models.Election, error) {
	active, err := tx.ActiveElection(ctx, guildID, position)
	if errors.Is(err, store.ErrNotFound) {
		return models.Election{}, ErrNoActiveElection
	}
	return active, err
}

// Open creates a fresh Nominating election. With ClearExisting, a current
// election for the position is deleted along with its nominations and
// ballots in the same transaction.
func (e *Engine) Open(ctx context.Context, caps Capabilities, guildID, position, requesterID string, req models.OpenElectionRequest) (election models.Election, err error) {
	defer e.observe(OpOpen, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return models.Election{}, err
	}
	if caps == nil || !caps.IsAdmin(requesterID, guildID) {
		return models.Election{}, e.denied(OpOpen, guildID, position)
	}

	now := e.now().UTC()
	election = models.Election{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		Position:  position,
		Status:    models.StatusNominating,
		OpenedBy:  requesterID,
		CreatedAt: now,
	}
	if req.VotingStartsAt != nil {
		startsAt := req.VotingStartsAt.UTC()
		election.VotingStartsAt = &startsAt
	}

	var cleared string
	err = e.serialized(ctx, guildID, position, func(tx store.Tx) error {
		existing, err := tx.ActiveElection(ctx, guildID, position)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return err
		case !req.ClearExisting:
			return ErrElectionAlreadyOpen
		default:
			if err := tx.DeleteElection(ctx, existing.ID); err != nil {
				return err
			}
			cleared = existing.ID
		}

		created, err := tx.CreateElection(ctx, election)
		if errors.Is(err, store.ErrDuplicate) {
			return ErrElectionAlreadyOpen
		}
		if err != nil {
			return err
		}
		election = created
		return nil
	})
	if err != nil {
		return models.Election{}, err
	}

	if cleared != "" {
		e.logger.Info("previous election cleared",
			"event", "election.cleared",
			"election_id", cleared,
			"guild_id", guildID,
			"position", position,
		)
	}
	e.logger.Info("election opened",
		"event", "election.opened",
		"election_id", election.ID,
		"guild_id", guildID,
		"position", position,
		"opened_by", requesterID,
	)
	return election, nil
}

// Nominate registers a candidate while the election accepts nominations and
// returns the nominee list in nomination order.
func (e *Engine) Nominate(ctx context.Context, guildID, position, candidateID, displayName string) (nominees []models.Nomination, err error) {
	defer e.observe(OpNominate, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return nil, err
	}
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return nil, fmt.Errorf("%w: candidate is required", ErrInvalidInput)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = candidateID
	}

	var electionID string
	err = e.serialized(ctx, guildID, position, func(tx store.Tx) error {
		active, err := activeElection(ctx, tx, guildID, position)
		if err != nil {
			return err
		}
		if active.Status != models.StatusNominating {
			return ErrVotingAlreadyStarted
		}
		electionID = active.ID

		_, err = tx.AddNomination(ctx, models.Nomination{
			ElectionID:  active.ID,
			CandidateID: candidateID,
			DisplayName: displayName,
			NominatedAt: e.now().UTC(),
		})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateCandidate
		}
		if err != nil {
			return err
		}

		nominees, err = tx.Nominations(ctx, active.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("candidate nominated",
		"event", "election.nominated",
		"election_id", electionID,
		"guild_id", guildID,
		"position", position,
		"nominees", len(nominees),
	)
	return nominees, nil
}

// StartVoting moves the active election from Nominating to Voting.
func (e *Engine) StartVoting(ctx context.Context, caps Capabilities, guildID, position, requesterID string) (election models.Election, nominees []models.Nomination, err error) {
	defer e.observe(OpStartVoting, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return models.Election{}, nil, err
	}
	if caps == nil || !caps.IsAdmin(requesterID, guildID) {
		return models.Election{}, nil, e.denied(OpStartVoting, guildID, position)
	}

	err = e.serialized(ctx, guildID, position, func(tx store.Tx) error {
		election, nominees, err = e.startVoting(ctx, tx, guildID, position)
		return err
	})
	if err != nil {
		return models.Election{}, nil, err
	}

	e.logger.Info("voting started",
		"event", "election.voting_started",
		"election_id", election.ID,
		"guild_id", guildID,
		"position", position,
		"started_by", requesterID,
	)
	return election, nominees, nil
}

func (e *Engine) startVoting(ctx context.Context, tx store.Tx, guildID, position string) (models.Election, []models.Nomination, error) {
	active, err := activeElection(ctx, tx, guildID, position)
	if err != nil {
		return models.Election{}, nil, err
	}
	if active.Status != models.StatusNominating {
		return models.Election{}, nil, ErrVotingAlreadyStarted
	}

	now := e.now().UTC()
	if err := tx.StartVoting(ctx, active.ID, now); err != nil {
		return models.Election{}, nil, err
	}
	active.Status = models.StatusVoting
	active.VotingStartedAt = &now

	nominees, err := tx.Nominations(ctx, active.ID)
	if err != nil {
		return models.Election{}, nil, err
	}
	return active, nominees, nil
}

// PromoteDue starts voting for every election whose scheduled start has
// passed. Each promotion takes its own key lock and transaction, so one
// failure does not block the rest.
func (e *Engine) PromoteDue(ctx context.Context) (promoted int, err error) {
	defer e.observe(OpPromote, e.now(), &err)

	var due []models.Election
	err = e.read(ctx, func(tx store.Tx) error {
		due, err = tx.DueForVoting(ctx, e.now())
		return err
	})
	if err != nil {
		return 0, err
	}

	var errs []error
	for _, candidate := range due {
		err := e.serialized(ctx, candidate.GuildID, candidate.Position, func(tx store.Tx) error {
			active, err := tx.ActiveElection(ctx, candidate.GuildID, candidate.Position)
			if errors.Is(err, store.ErrNotFound) {
				return errStale
			}
			if err != nil {
				return err
			}
			// Closed, cleared, or started by hand since the scan
			if active.ID != candidate.ID || active.Status != models.StatusNominating {
				return errStale
			}
			_, _, err = e.startVoting(ctx, tx, candidate.GuildID, candidate.Position)
			return err
		})
		if errors.Is(err, errStale) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("promote election %s: %w", candidate.ID, err))
			continue
		}

		promoted++
		e.logger.Info("scheduled voting started",
			"event", "election.voting_started",
			"election_id", candidate.ID,
			"guild_id", candidate.GuildID,
			"position", candidate.Position,
		)
	}

	return promoted, errors.Join(errs...)
}

// CastVote records the voter's choice, replacing any earlier ballot. It
// only acknowledges; counts are never returned before close.
func (e *Engine) CastVote(ctx context.Context, caps Capabilities, guildID, position, voterID, candidateID string) (err error) {
	defer e.observe(OpCastVote, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return err
	}
	if caps == nil || !caps.IsVoter(voterID, guildID) {
		return e.denied(OpCastVote, guildID, position)
	}
	candidateID = strings.TrimSpace(candidateID)

	var electionID string
	err = e.serialized(ctx, guildID, position, func(tx store.Tx) error {
		active, err := activeElection(ctx, tx, guildID, position)
		if err != nil {
			return err
		}
		if active.Status == models.StatusNominating && !e.cfg.EarlyVoting {
			return ErrVotingNotOpen
		}
		electionID = active.ID

		nominees, err := tx.Nominations(ctx, active.ID)
		if err != nil {
			return err
		}
		if !isNominee(nominees, candidateID) {
			return ErrInvalidCandidate
		}

		return tx.UpsertBallot(ctx, models.Ballot{
			ElectionID:  active.ID,
			VoterHash:   auth.HashVoter(e.cfg.BallotSalt, guildID, voterID),
			CandidateID: candidateID,
			UpdatedAt:   e.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	e.logger.Debug("ballot recorded",
		"event", "election.ballot_recorded",
		"election_id", electionID,
		"guild_id", guildID,
		"position", position,
	)
	return nil
}

func isNominee(nominees []models.Nomination, candidateID string) bool {
	for _, n := range nominees {
		if n.CandidateID == candidateID {
			return true
		}
	}
	return false
}

// Close ends the active election, tallies it, and stores the result in the
// same transaction. The returned result is meant for the closing admin only.
func (e *Engine) Close(ctx context.Context, caps Capabilities, guildID, position, requesterID string) (result models.Result, err error) {
	defer e.observe(OpClose, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return models.Result{}, err
	}
	if caps == nil || !caps.IsAdmin(requesterID, guildID) {
		return models.Result{}, e.denied(OpClose, guildID, position)
	}

	snapshotID, err := auth.GenerateID(16)
	if err != nil {
		return models.Result{}, classify(err)
	}

	err = e.serialized(ctx, guildID, position, func(tx store.Tx) error {
		active, err := tx.ActiveElection(ctx, guildID, position)
		if errors.Is(err, store.ErrNotFound) {
			// A closed election with nothing newer means a repeated close
			_, latestErr := tx.LatestElection(ctx, guildID, position)
			if latestErr == nil {
				return ErrAlreadyClosed
			}
			if errors.Is(latestErr, store.ErrNotFound) {
				return ErrNoActiveElection
			}
			return latestErr
		}
		if err != nil {
			return err
		}

		nominees, err := tx.Nominations(ctx, active.ID)
		if err != nil {
			return err
		}
		ballots, err := tx.Ballots(ctx, active.ID)
		if err != nil {
			return err
		}

		closedAt := e.now().UTC()
		if err := tx.CloseElection(ctx, active.ID, requesterID, closedAt); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAlreadyClosed
			}
			return err
		}

		counted := tally.Count(nominees, ballots)
		result = models.Result{
			SnapshotID:  snapshotID,
			ElectionID:  active.ID,
			GuildID:     guildID,
			Position:    position,
			Outcome:     counted.Outcome,
			Winner:      counted.Winner,
			Tied:        counted.Tied,
			Standings:   counted.Standings,
			TotalVotes:  counted.TotalVotes,
			ClosedBy:    requesterID,
			ClosedAt:    closedAt,
			StatusAtEnd: active.Status,
		}
		result.Summary = tally.Summary(result)

		err = tx.SaveResult(ctx, result)
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAlreadyClosed
		}
		return err
	})
	if err != nil {
		return models.Result{}, err
	}

	e.logger.Info("election closed",
		"event", "election.closed",
		"election_id", result.ElectionID,
		"guild_id", guildID,
		"position", position,
		"closed_by", requesterID,
		"outcome", result.Outcome,
		"total_votes", result.TotalVotes,
	)
	return result, nil
}

// Results re-reads the stored result of the most recently closed election
// for the position. Nothing is re-tallied.
func (e *Engine) Results(ctx context.Context, caps Capabilities, guildID, position, requesterID string) (result models.Result, err error) {
	defer e.observe(OpResults, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return models.Result{}, err
	}
	if caps == nil || !caps.IsAdmin(requesterID, guildID) {
		return models.Result{}, e.denied(OpResults, guildID, position)
	}

	err = e.read(ctx, func(tx store.Tx) error {
		closed, err := tx.LatestClosedElection(ctx, guildID, position)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoActiveElection
		}
		if err != nil {
			return err
		}

		result, err = tx.Result(ctx, closed.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoActiveElection
		}
		return err
	})
	if err != nil {
		return models.Result{}, err
	}
	return result, nil
}

// Nominees returns the active election and its nominees in nomination order.
// Vote counts are never part of this view.
func (e *Engine) Nominees(ctx context.Context, guildID, position string) (election models.Election, nominees []models.Nomination, err error) {
	defer e.observe(OpNominees, e.now(), &err)

	guildID, position, err = normalize(guildID, position)
	if err != nil {
		return models.Election{}, nil, err
	}

	err = e.read(ctx, func(tx store.Tx) error {
		election, err = activeElection(ctx, tx, guildID, position)
		if err != nil {
			return err
		}
		nominees, err = tx.Nominations(ctx, election.ID)
		return err
	})
	if err != nil {
		return models.Election{}, nil, err
	}
	return election, nominees, nil
}

// ListNominating returns the guild's elections still taking nominations.
func (e *Engine) ListNominating(ctx context.Context, guildID string) (elections []models.Election, err error) {
	defer e.observe(OpListElections, e.now(), &err)

	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild is required", ErrInvalidInput)
	}

	err = e.read(ctx, func(tx store.Tx) error {
		elections, err = tx.ListNominating(ctx, guildID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return elections, nil
}
