// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/guild-elections/models"
)

// AddNomination appends a candidate to the election's nominee list and
// returns it with its position in nomination order.
func (t *sqlTx) AddNomination(ctx context.Context, n models.Nomination) (models.Nomination, error) {
	var next int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM nomination WHERE election_id = $1`,
		n.ElectionID).Scan(&next)
	if err != nil {
		return models.Nomination{}, fmt.Errorf("next nomination seq: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO nomination (election_id, candidate_id, display_name, seq, nominated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		n.ElectionID, n.CandidateID, n.DisplayName, next, toMillis(n.NominatedAt))
	if isUniqueViolation(err) {
		return models.Nomination{}, ErrDuplicate
	}
	if err != nil {
		return models.Nomination{}, fmt.Errorf("insert nomination: %w", err)
	}

	n.Order = next
	return n, nil
}

// Nominations lists an election's nominees in nomination order.
func (t *sqlTx) Nominations(ctx context.Context, electionID string) ([]models.Nomination, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT candidate_id, display_name, seq, nominated_at
		FROM nomination
		WHERE election_id = $1
		ORDER BY seq ASC`, electionID)
	if err != nil {
		return nil, fmt.Errorf("query nominations: %w", err)
	}
	defer rows.Close()

	nominations := []models.Nomination{}
	for rows.Next() {
		var n models.Nomination
		var nominatedAt int64
		if err := rows.Scan(&n.CandidateID, &n.DisplayName, &n.Order, &nominatedAt); err != nil {
			return nil, fmt.Errorf("scan nomination: %w", err)
		}
		n.ElectionID = electionID
		n.NominatedAt = fromMillis(nominatedAt)
		nominations = append(nominations, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nominations: %w", err)
	}
	return nominations, nil
}

// UpsertBallot records the voter's choice, replacing any earlier ballot.
func (t *sqlTx) UpsertBallot(ctx context.Context, b models.Ballot) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO ballot (election_id, voter_hash, candidate_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (election_id, voter_hash)
		DO UPDATE SET candidate_id = excluded.candidate_id, updated_at = excluded.updated_at`,
		b.ElectionID, b.VoterHash, b.CandidateID, toMillis(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert ballot: %w", err)
	}
	return nil
}

// Ballots returns every ballot for an election. Only the tally reads these.
func (t *sqlTx) Ballots(ctx context.Context, electionID string) ([]models.Ballot, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT voter_hash, candidate_id, updated_at
		FROM ballot
		WHERE election_id = $1
		ORDER BY updated_at ASC, voter_hash ASC`, electionID)
	if err != nil {
		return nil, fmt.Errorf("query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var b models.Ballot
		var updatedAt int64
		if err := rows.Scan(&b.VoterHash, &b.CandidateID, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		b.ElectionID = electionID
		b.UpdatedAt = fromMillis(updatedAt)
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ballots: %w", err)
	}
	return ballots, nil
}

// SaveResult stores the closing tally. Each election has at most one.
func (t *sqlTx) SaveResult(ctx context.Context, r models.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO result_snapshot (id, election_id, computed_at, payload)
		VALUES ($1, $2, $3, $4)`,
		r.SnapshotID, r.ElectionID, toMillis(r.ClosedAt), string(payload))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert result snapshot: %w", err)
	}
	return nil
}

// Result reads the stored tally for a closed election.
func (t *sqlTx) Result(ctx context.Context, electionID string) (models.Result, error) {
	var payload string
	err := t.tx.QueryRowContext(ctx, `
		SELECT payload FROM result_snapshot WHERE election_id = $1`, electionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Result{}, ErrNotFound
	}
	if err != nil {
		return models.Result{}, fmt.Errorf("query result snapshot: %w", err)
	}

	var r models.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return models.Result{}, fmt.Errorf("decode result snapshot: %w", err)
	}
	return r, nil
}
